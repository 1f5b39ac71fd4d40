package ops

import "fmt"

// structuralEqual implements structural equality across compatible
// types, the same "compare by broad class" approach graft's
// ComparisonOperator uses before delegating to a type handler.
func structuralEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int64, float64:
		if !isNumeric(b) {
			return false
		}
		return asFloat(a) == asFloat(b)
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !structuralEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int64, float64:
		return true
	default:
		return false
	}
}

func evalEq(args []interface{}) (interface{}, error) {
	return structuralEqual(args[0], args[1]), nil
}

func evalNe(args []interface{}) (interface{}, error) {
	return !structuralEqual(args[0], args[1]), nil
}

func ordering(op string, args []interface{}) (int, error) {
	a, b := args[0], args[1]
	if isNumeric(a) && isNumeric(b) {
		fa, fb := asFloat(a), asFloat(b)
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		default:
			return 0, nil
		}
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		switch {
		case sa < sb:
			return -1, nil
		case sa > sb:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, fmt.Errorf("%s: ordering is only defined between two numerics or two strings", op)
}

func evalLt(args []interface{}) (interface{}, error) {
	c, err := ordering("lt", args)
	return c < 0, err
}

func evalLe(args []interface{}) (interface{}, error) {
	c, err := ordering("le", args)
	return c <= 0, err
}

func evalGt(args []interface{}) (interface{}, error) {
	c, err := ordering("gt", args)
	return c > 0, err
}

func evalGe(args []interface{}) (interface{}, error) {
	c, err := ordering("ge", args)
	return c >= 0, err
}

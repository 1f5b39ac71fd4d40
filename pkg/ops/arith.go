package ops

import (
	"fmt"
	"math"
)

// allStrings / allNumeric classify a fully-evaluated argument list, the
// same "resolve then dispatch by operand type" shape as graft's
// ArithmeticOperatorBase.Run (which asks a TypeRegistry for a handler
// once both operands are known).
func allStrings(args []interface{}) bool {
	for _, a := range args {
		if _, ok := a.(string); !ok {
			return false
		}
	}
	return true
}

func allNumeric(args []interface{}) bool {
	for _, a := range args {
		switch a.(type) {
		case int64, float64:
		default:
			return false
		}
	}
	return true
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func allInts(args []interface{}) bool {
	for _, a := range args {
		if _, ok := a.(int64); !ok {
			return false
		}
	}
	return true
}

func mixedTypeError(op string, args []interface{}) error {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = typeNameOf(a)
	}
	return fmt.Errorf("%s: mismatched operand types %v", op, types)
}

func typeNameOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "Null"
	case bool:
		return "Bool"
	case int64:
		return "Int"
	case float64:
		return "Float"
	case string:
		return "Str"
	case []interface{}:
		return "List"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func evalAdd(args []interface{}) (interface{}, error) {
	if allStrings(args) {
		out := ""
		for _, a := range args {
			out += a.(string)
		}
		return out, nil
	}
	if !allNumeric(args) {
		return nil, mixedTypeError("add", args)
	}
	if allInts(args) {
		var sum int64
		for _, a := range args {
			n := a.(int64)
			next := sum + n
			if (n > 0 && next < sum) || (n < 0 && next > sum) {
				return nil, fmt.Errorf("add: integer overflow")
			}
			sum = next
		}
		return sum, nil
	}
	var sum float64
	for _, a := range args {
		sum += asFloat(a)
	}
	return sum, nil
}

func evalSub(args []interface{}) (interface{}, error) {
	if !allNumeric(args) {
		return nil, mixedTypeError("sub", args)
	}
	if allInts(args) {
		a, b := args[0].(int64), args[1].(int64)
		r := a - b
		if (b < 0 && r < a) || (b > 0 && r > a) {
			return nil, fmt.Errorf("sub: integer overflow")
		}
		return r, nil
	}
	return asFloat(args[0]) - asFloat(args[1]), nil
}

func evalMul(args []interface{}) (interface{}, error) {
	if !allNumeric(args) {
		return nil, mixedTypeError("mul", args)
	}
	if allInts(args) {
		var product int64 = 1
		for _, a := range args {
			n := a.(int64)
			if product != 0 && n != 0 {
				r := product * n
				if r/n != product {
					return nil, fmt.Errorf("mul: integer overflow")
				}
				product = r
			} else {
				product = 0
			}
		}
		return product, nil
	}
	product := 1.0
	for _, a := range args {
		product *= asFloat(a)
	}
	return product, nil
}

func evalDiv(args []interface{}) (interface{}, error) {
	if !allNumeric(args) {
		return nil, mixedTypeError("div", args)
	}
	if allInts(args) {
		a, b := args[0].(int64), args[1].(int64)
		if b == 0 {
			return nil, fmt.Errorf("div: division by zero")
		}
		if a%b == 0 {
			return a / b, nil
		}
		return float64(a) / float64(b), nil
	}
	b := asFloat(args[1])
	if b == 0 {
		return nil, fmt.Errorf("div: division by zero")
	}
	return asFloat(args[0]) / b, nil
}

func evalMod(args []interface{}) (interface{}, error) {
	if !allNumeric(args) {
		return nil, mixedTypeError("mod", args)
	}
	if allInts(args) {
		a, b := args[0].(int64), args[1].(int64)
		if b == 0 {
			return nil, fmt.Errorf("mod: division by zero")
		}
		return a % b, nil // Go's % already truncates toward zero
	}
	b := asFloat(args[1])
	if b == 0 {
		return nil, fmt.Errorf("mod: division by zero")
	}
	return math.Mod(asFloat(args[0]), b), nil
}

func evalPow(args []interface{}) (interface{}, error) {
	if !allNumeric(args) {
		return nil, mixedTypeError("pow", args)
	}
	if allInts(args) {
		base, exp := args[0].(int64), args[1].(int64)
		if exp < 0 {
			return math.Pow(float64(base), float64(exp)), nil
		}
		var result int64 = 1
		for i := int64(0); i < exp; i++ {
			next := result * base
			if base != 0 && next/base != result {
				return nil, fmt.Errorf("pow: integer overflow")
			}
			result = next
		}
		return result, nil
	}
	return math.Pow(asFloat(args[0]), asFloat(args[1])), nil
}

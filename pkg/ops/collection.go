package ops

import "fmt"

func evalList(args []interface{}) (interface{}, error) {
	out := make([]interface{}, len(args))
	copy(out, args)
	return out, nil
}

func evalLen(args []interface{}) (interface{}, error) {
	switch v := args[0].(type) {
	case []interface{}:
		return int64(len(v)), nil
	case string:
		return int64(len(v)), nil
	default:
		return nil, fmt.Errorf("len: operand must be a list or string, got %s", typeNameOf(v))
	}
}

func evalGet(args []interface{}) (interface{}, error) {
	idx, ok := args[1].(int64)
	if !ok {
		return nil, fmt.Errorf("get: index must be an Int, got %s", typeNameOf(args[1]))
	}
	switch v := args[0].(type) {
	case []interface{}:
		if idx < 0 || int(idx) >= len(v) {
			return nil, fmt.Errorf("get: index %d out of range (length %d)", idx, len(v))
		}
		return v[idx], nil
	case string:
		runes := []rune(v)
		if idx < 0 || int(idx) >= len(runes) {
			return nil, fmt.Errorf("get: index %d out of range (length %d)", idx, len(runes))
		}
		return string(runes[idx]), nil
	default:
		return nil, fmt.Errorf("get: operand must be a list or string, got %s", typeNameOf(v))
	}
}

func evalHas(args []interface{}) (interface{}, error) {
	switch v := args[0].(type) {
	case []interface{}:
		for _, e := range v {
			if structuralEqual(e, args[1]) {
				return true, nil
			}
		}
		return false, nil
	case string:
		needle, ok := args[1].(string)
		if !ok {
			return false, nil
		}
		return containsSubstring(v, needle), nil
	default:
		return nil, fmt.Errorf("has: operand must be a list or string, got %s", typeNameOf(v))
	}
}

func containsSubstring(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func evalConcat(args []interface{}) (interface{}, error) {
	if allStrings(args) {
		out := ""
		for _, a := range args {
			out += a.(string)
		}
		return out, nil
	}
	allLists := true
	for _, a := range args {
		if _, ok := a.([]interface{}); !ok {
			allLists = false
			break
		}
	}
	if allLists {
		var out []interface{}
		for _, a := range args {
			out = append(out, a.([]interface{})...)
		}
		if out == nil {
			out = []interface{}{}
		}
		return out, nil
	}
	return nil, mixedTypeError("concat", args)
}

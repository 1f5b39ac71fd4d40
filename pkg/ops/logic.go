package ops

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []interface{}:
		return len(t) != 0
	default:
		return true
	}
}

func evalNot(args []interface{}) (interface{}, error) {
	return !truthy(args[0]), nil
}

package ops

import (
	"fmt"
	"strconv"
	"strings"
)

// evalInt implements `int`: parse a string or truncate a float.
func evalInt(args []interface{}) (interface{}, error) {
	switch v := args[0].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		s := strings.TrimSpace(v)
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int: cannot parse %q as an integer", v)
		}
		return n, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("int: cannot convert %s to Int", typeNameOf(v))
	}
}

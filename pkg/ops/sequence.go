package ops

import "fmt"

// evalRange implements `range`: 1 arg n -> 1..=n; 2 args a,b -> ascending
// when a<=b, descending when a>b, both inclusive.
func evalRange(args []interface{}) (interface{}, error) {
	nums := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(int64)
		if !ok {
			return nil, fmt.Errorf("range: arguments must be Int, got %s", typeNameOf(a))
		}
		nums[i] = n
	}

	var a, b int64
	if len(nums) == 1 {
		a, b = 1, nums[0]
	} else {
		a, b = nums[0], nums[1]
	}

	out := []interface{}{}
	if a <= b {
		for i := a; i <= b; i++ {
			out = append(out, i)
		}
	} else {
		for i := a; i >= b; i-- {
			out = append(out, i)
		}
	}
	return out, nil
}

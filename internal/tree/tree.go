// Package tree reads values out of untyped, positionally addressed JSON.
//
// Every lookup walks a fixed index path through nested arrays. Any failure
// along the way (index out of range, a non-array where an array is needed,
// a value of the wrong type) yields "absent" rather than an error.
package tree

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
)

// Decode parses data keeping numbers as json.Number so integers stay exact.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, eris.Wrap(err, "tree: decode")
	}
	return v, nil
}

// Get walks path from root. Negative indexes count from the end of an array.
func Get(root any, path ...int) (any, bool) {
	cur := root
	for _, idx := range path {
		arr, ok := cur.([]any)
		if !ok {
			return nil, false
		}
		if idx < 0 {
			idx += len(arr)
		}
		if idx < 0 || idx >= len(arr) {
			return nil, false
		}
		cur = arr[idx]
	}
	return cur, true
}

// String returns the string at path.
func String(root any, path ...int) (string, bool) {
	v, ok := Get(root, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Scalar returns the string at path, unwrapping a one-element list so that
// "x" and ["x"] read the same.
func Scalar(root any, path ...int) (string, bool) {
	v, ok := Get(root, path...)
	if !ok {
		return "", false
	}
	if arr, isArr := v.([]any); isArr {
		if len(arr) == 0 {
			return "", false
		}
		v = arr[0]
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the integer at path. Non-integral numbers are absent.
func Int(root any, path ...int) (int, bool) {
	v, ok := Get(root, path...)
	if !ok {
		return 0, false
	}
	return AsInt(v)
}

// IntPrefix returns the first n elements of the array at path. It is absent
// when the array is shorter than n or any of those elements is not an integer.
func IntPrefix(root any, n int, path ...int) ([]int, bool) {
	v, ok := Get(root, path...)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok || len(arr) < n {
		return nil, false
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		if out[i], ok = AsInt(arr[i]); !ok {
			return nil, false
		}
	}
	return out, true
}

// AsInt converts a decoded JSON number to int.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

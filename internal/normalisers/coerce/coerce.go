package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Int converts v to an integer. Numeric strings such as "12.0" are accepted
// and fractional values are truncated toward zero.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		return parseInt(string(n))
	case string:
		return parseInt(n)
	}
	f, ok := Float(v)
	if !ok {
		return 0, false
	}
	return truncate(f)
}

// Float converts v to a float.
func Float(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	case json.Number:
		return parseFloat(string(n))
	case string:
		return parseFloat(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Bool converts v to a boolean.
//
// Only a native true/false or the string "true" (any case) produce a value.
// Every other input, including the string "false", is null. Callers that
// need "false" strings to map to false must handle them before calling.
func Bool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		if strings.EqualFold(strings.TrimSpace(b), "true") {
			return true, true
		}
	}
	return false, false
}

// IntOrNil returns Int(v) as a row value, nil when null.
func IntOrNil(v any) any {
	if n, ok := Int(v); ok {
		return n
	}
	return nil
}

// FloatOrNil returns Float(v) as a row value, nil when null.
func FloatOrNil(v any) any {
	if f, ok := Float(v); ok {
		return f
	}
	return nil
}

// BoolOrNil returns Bool(v) as a row value, nil when null.
func BoolOrNil(v any) any {
	if b, ok := Bool(v); ok {
		return b
	}
	return nil
}

// StringOrNil returns v as a string row value. Numbers are formatted,
// objects and arrays are null.
func StringOrNil(v any) any {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case nil, map[string]any, []any:
		return nil
	}
	if f, ok := Float(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return nil
}

func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, ok := parseFloat(s)
	if !ok {
		return 0, false
	}
	return truncate(f)
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func truncate(f float64) (int64, bool) {
	t := math.Trunc(f)
	if t > math.MaxInt64 || t < math.MinInt64 {
		return 0, false
	}
	return int64(t), true
}

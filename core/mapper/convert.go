package mapper

import (
	"fmt"
	"strconv"
	"strings"
)

// Int64 converts a raw column value to int64 using explicit type switching.
// NULL and unparseable values yield 0.
func Int64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int8:
		return int64(v)
	case uint:
		return int64(v)
	case uint64:
		return int64(v)
	case uint32:
		return int64(v)
	case uint16:
		return int64(v)
	case uint8:
		return int64(v)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		i, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return i
	case []byte:
		i, _ := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		return i
	default:
		return 0
	}
}

// Int converts a raw column value to int.
func Int(val any) int {
	return int(Int64(val))
}

// Float converts a raw column value to float64.
func Float(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		return f
	case nil:
		return 0
	default:
		return float64(Int64(v))
	}
}

// String converts a raw column value to string. NULL yields "".
func String(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Bool converts a raw column value to bool.
// It handles bool, numeric types (1=true), and strings ("1", "true" in any case).
// Anything else, including NULL, is false.
func Bool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		return Int64(v) == 1
	case string:
		s := strings.TrimSpace(v)
		return s == "1" || strings.EqualFold(s, "true")
	case []byte:
		s := strings.TrimSpace(string(v))
		return s == "1" || strings.EqualFold(s, "true")
	default:
		return false
	}
}

// OptString returns nil for NULL.
func OptString(val any) *string {
	if val == nil {
		return nil
	}
	s := String(val)
	return &s
}

// OptInt returns nil for NULL.
func OptInt(val any) *int {
	if val == nil {
		return nil
	}
	i := Int(val)
	return &i
}

// OptFloat returns nil for NULL.
func OptFloat(val any) *float64 {
	if val == nil {
		return nil
	}
	f := Float(val)
	return &f
}

// OptBool returns nil for NULL.
func OptBool(val any) *bool {
	if val == nil {
		return nil
	}
	b := Bool(val)
	return &b
}

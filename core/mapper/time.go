package mapper

import (
	"strings"
	"time"
)

// naiveLayouts are the text forms SQLite hands back. Values without a zone are
// interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC3339Nano,
}

// Time converts a raw column value to a UTC time. NULL and unparseable values
// yield the zero time.
func Time(val any) time.Time {
	t, _ := parseTime(val)
	return t
}

// OptTime returns nil for NULL or unparseable values.
func OptTime(val any) *time.Time {
	t, ok := parseTime(val)
	if !ok {
		return nil
	}
	return &t
}

func parseTime(val any) (time.Time, bool) {
	switch v := val.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		return parseNaive(v)
	case []byte:
		return parseNaive(string(v))
	case int64:
		return time.Unix(v, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

func parseNaive(s string) (time.Time, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

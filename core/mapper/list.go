package mapper

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StringList decodes a JSON-encoded ordered list of strings. NULL and empty
// text decode to nil. Malformed JSON is an error so corruption surfaces to the
// caller instead of reading as an empty list.
func StringList(val any) ([]string, error) {
	var raw string
	switch v := val.(type) {
	case nil:
		return nil, nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return nil, fmt.Errorf("unexpected %T for JSON list column", val)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("malformed JSON list %q: %w", raw, err)
	}
	return out, nil
}

// EncodeStringList encodes a list for storage in a text column. A nil list is
// stored as NULL.
func EncodeStringList(list []string) (any, error) {
	if list == nil {
		return nil, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

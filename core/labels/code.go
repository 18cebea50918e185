package labels

import (
	"strconv"
	"strings"

	"github.com/sohosai/hyperdashi-server/core/apperror"
)

const (
	// Width is the length of every label.
	Width = 4
	// MaxValue is the largest encodable value, ZZZZ.
	MaxValue int64 = 36*36*36*36 - 1
)

// Encode renders n in uppercase base-36, left-padded with zeros to Width.
// n must lie in [0, MaxValue].
func Encode(n int64) string {
	s := strings.ToUpper(strconv.FormatInt(n, 36))
	if len(s) < Width {
		s = strings.Repeat("0", Width-len(s)) + s
	}
	return s
}

// Decode parses a label back into its counter value.
func Decode(code string) (int64, error) {
	if len(code) != Width {
		return 0, apperror.BadRequest("Invalid label %q: must be %d characters", code, Width)
	}
	for _, r := range code {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') {
			return 0, apperror.BadRequest("Invalid label %q: must be uppercase base-36", code)
		}
	}
	n, err := strconv.ParseInt(code, 36, 64)
	if err != nil {
		return 0, apperror.BadRequest("Invalid label %q", code)
	}
	return n, nil
}

// Valid reports whether code is a well-formed label.
func Valid(code string) bool {
	_, err := Decode(code)
	return err == nil
}

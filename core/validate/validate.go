// Package validate checks request fields and reports the first violation as
// a BadRequest error naming the field.
package validate

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sohosai/hyperdashi-server/core/apperror"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Check runs rules in order and returns the first error.
func Check(rules ...error) error {
	for _, err := range rules {
		if err != nil {
			return err
		}
	}
	return nil
}

// Length bounds the rune count of s.
func Length(field, s string, lo, hi int) error {
	n := utf8.RuneCountInString(s)
	if n < lo || n > hi {
		if lo == 0 {
			return apperror.BadRequest("%s must be at most %d characters", field, hi)
		}
		return apperror.BadRequest("%s must be between %d and %d characters", field, lo, hi)
	}
	return nil
}

// OptLength applies Length when s is set.
func OptLength(field string, s *string, lo, hi int) error {
	if s == nil {
		return nil
	}
	return Length(field, *s, lo, hi)
}

// OptRange bounds *v when it is set.
func OptRange(field string, v *int, lo, hi int) error {
	if v == nil || (*v >= lo && *v <= hi) {
		return nil
	}
	return apperror.BadRequest("%s must be between %d and %d", field, lo, hi)
}

// OneOf requires s to be one of allowed.
func OneOf(field, s string, allowed ...string) error {
	if slices.Contains(allowed, s) {
		return nil
	}
	return apperror.BadRequest("%s must be one of %s", field, strings.Join(allowed, ", "))
}

// OptOneOf applies OneOf when s is set.
func OptOneOf(field string, s *string, allowed ...string) error {
	if s == nil {
		return nil
	}
	return OneOf(field, *s, allowed...)
}

// OptURL requires an absolute http or https URL when s is set.
func OptURL(field string, s *string) error {
	if s == nil || *s == "" {
		return nil
	}
	u, err := url.ParseRequestURI(*s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.BadRequest("%s must be a valid URL", field)
	}
	return nil
}

// HexColor requires #RRGGBB.
func HexColor(field, s string) error {
	if !hexColor.MatchString(s) {
		return apperror.BadRequest("%s must be a hex color like #FF0000", field)
	}
	return nil
}

// OptHexColor applies HexColor when s is set.
func OptHexColor(field string, s *string) error {
	if s == nil {
		return nil
	}
	return HexColor(field, *s)
}

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sohosai/hyperdashi-server/core/apperror"
)

func ptr[T any](v T) *T { return &v }

func TestRules(t *testing.T) {
	tests := []struct {
		name string
		err  error
		ok   bool
	}{
		{"length ok", Length("name", "ケーブル", 1, 4), true},
		{"length empty", Length("name", "", 1, 255), false},
		{"length long", Length("student_number", "123456789012345678901", 1, 20), false},
		{"opt length nil", OptLength("model_number", nil, 0, 255), true},
		{"opt range nil", OptRange("purchase_year", nil, 1900, 2100), true},
		{"opt range low", OptRange("purchase_year", ptr(1899), 1900, 2100), false},
		{"opt range edge", OptRange("durability_years", ptr(100), 1, 100), true},
		{"one of", OneOf("storage_type", "container", "location", "container"), true},
		{"one of bad", OneOf("storage_type", "shelf", "location", "container"), false},
		{"url ok", OptURL("image_url", ptr("https://example.org/a.png")), true},
		{"url empty", OptURL("image_url", ptr("")), true},
		{"url relative", OptURL("image_url", ptr("/uploads/a.png")), false},
		{"url scheme", OptURL("image_url", ptr("ftp://example.org/a.png")), false},
		{"hex ok", HexColor("hex_code", "#a1B2c3"), true},
		{"hex short", HexColor("hex_code", "#FFF"), false},
		{"hex no hash", HexColor("hex_code", "FF0000"), false},
		{"opt hex nil", OptHexColor("hex_code", nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ok {
				assert.NoError(t, tt.err)
				return
			}
			assert.True(t, apperror.Is(tt.err, apperror.KindBadRequest), "got %v", tt.err)
		})
	}
}

func TestCheck(t *testing.T) {
	err := Check(nil, Length("name", "", 1, 5), HexColor("hex_code", "x"))
	assert.EqualError(t, err, "name must be between 1 and 5 characters")
	assert.NoError(t, Check(nil, nil))
}

// Package request decodes HTTP input for handlers: strict JSON bodies, path
// ids, pagination, sorting and optional boolean filters.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/query"
)

// JSON decodes the body into v, rejecting unknown fields and trailing data.
func JSON(c *fiber.Ctx, v any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.BadRequest("Request body is empty")
		}
		return apperror.BadRequest("Invalid request body: %v", err)
	}
	if dec.More() {
		return apperror.BadRequest("Invalid request body: trailing data")
	}
	return nil
}

// ID parses a positive integer path parameter.
func ID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.BadRequest("Invalid %s: %q", name, c.Params(name))
	}
	return id, nil
}

// Page reads page and per_page. Invalid or missing values take defaults.
func Page(c *fiber.Ctx) query.Page {
	return query.Page{
		Page:    c.QueryInt("page", query.DefaultPage),
		PerPage: c.QueryInt("per_page", query.DefaultPerPage),
	}.Normalize()
}

// Sort reads sort_by and sort_order.
func Sort(c *fiber.Ctx) query.SortSpec {
	return query.SortSpec{
		Key:   c.Query("sort_by", query.DefaultSortKey),
		Order: c.Query("sort_order", "desc"),
	}
}

// OptBool reads an optional boolean query parameter.
func OptBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.BadRequest("Invalid %s: %q", key, raw)
	}
	return &v, nil
}

// OptString reads an optional string query parameter.
func OptString(c *fiber.Ctx, key string) *string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	return &raw
}

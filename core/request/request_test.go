package request_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/query"
	"github.com/sohosai/hyperdashi-server/core/request"
)

type payload struct {
	Name string `json:"name"`
}

func run(t *testing.T, method, target, body string, h fiber.Handler) int {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperror.StatusCode(err))
	}})
	app.Add(method, "/items/:id?", h)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestJSON(t *testing.T) {
	var got payload
	h := func(c *fiber.Ctx) error {
		got = payload{}
		if err := request.JSON(c, &got); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}

	assert.Equal(t, 204, run(t, "POST", "/items", `{"name":"Mixer"}`, h))
	assert.Equal(t, "Mixer", got.Name)
	assert.Equal(t, 400, run(t, "POST", "/items", `{"name":"Mixer","extra":1}`, h))
	assert.Equal(t, 400, run(t, "POST", "/items", `{"name":`, h))
	assert.Equal(t, 400, run(t, "POST", "/items", ``, h))
	assert.Equal(t, 400, run(t, "POST", "/items", `{"name":"a"}{"name":"b"}`, h))
}

func TestID(t *testing.T) {
	var id int64
	h := func(c *fiber.Ctx) error {
		v, err := request.ID(c, "id")
		if err != nil {
			return err
		}
		id = v
		return c.SendStatus(fiber.StatusNoContent)
	}
	assert.Equal(t, 204, run(t, "GET", "/items/42", "", h))
	assert.Equal(t, int64(42), id)
	assert.Equal(t, 400, run(t, "GET", "/items/abc", "", h))
	assert.Equal(t, 400, run(t, "GET", "/items/0", "", h))
}

func TestQueryHelpers(t *testing.T) {
	var (
		page     query.Page
		sort     query.SortSpec
		onLoan   *bool
		location *string
	)
	h := func(c *fiber.Ctx) error {
		page = request.Page(c)
		sort = request.Sort(c)
		location = request.OptString(c, "location")
		var err error
		onLoan, err = request.OptBool(c, "is_on_loan")
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}

	assert.Equal(t, 204, run(t, "GET", "/items?page=3&per_page=5&sort_by=name&sort_order=asc&is_on_loan=true&location=Room%20A", "", h))
	assert.Equal(t, query.Page{Page: 3, PerPage: 5}, page)
	assert.Equal(t, query.SortSpec{Key: "name", Order: "asc"}, sort)
	require.NotNil(t, onLoan)
	assert.True(t, *onLoan)
	require.NotNil(t, location)
	assert.Equal(t, "Room A", *location)

	assert.Equal(t, 204, run(t, "GET", "/items?page=-1", "", h))
	assert.Equal(t, query.Page{Page: 1, PerPage: 20}, page)
	assert.Equal(t, query.SortSpec{Key: "created_at", Order: "desc"}, sort)
	assert.Nil(t, onLoan)
	assert.Nil(t, location)

	assert.Equal(t, 400, run(t, "GET", "/items?is_on_loan=maybe", "", h))
}

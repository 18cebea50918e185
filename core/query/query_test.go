package query

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
)

var itemSorts = SortColumns{
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func TestWhere(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		sql, args := Where(database.Postgres)
		assert.Empty(t, sql)
		assert.Empty(t, args)
	})
	t.Run("postgres numbering", func(t *testing.T) {
		sql, args := Where(database.Postgres,
			Eq("container_id", "A1B2"),
			Bool("is_disposed", false),
			Search("cable", "name", "label_id"),
			IsNull("return_date"),
		)
		assert.Equal(t, " WHERE container_id = $1 AND COALESCE(is_disposed, FALSE) = $2"+
			" AND (name ILIKE $3 OR label_id ILIKE $4) AND return_date IS NULL", sql)
		assert.Equal(t, []any{"A1B2", false, "%cable%", "%cable%"}, args)
	})
	t.Run("sqlite", func(t *testing.T) {
		sql, args := Where(database.SQLite, Bool("is_on_loan", true), NotNull("return_date"))
		assert.Equal(t, " WHERE "+database.SQLite.BoolExpr("is_on_loan")+" = ? AND return_date IS NOT NULL", sql)
		assert.Equal(t, []any{1}, args)
	})
	t.Run("blank search adds nothing", func(t *testing.T) {
		sql, args := Where(database.SQLite, Search("   ", "name"), Eq("id", 1))
		assert.Equal(t, " WHERE id = ?", sql)
		assert.Equal(t, []any{1}, args)
	})
	t.Run("search text stays bound", func(t *testing.T) {
		sql, args := Where(database.SQLite, Search("x' OR 1=1 --", "name"))
		assert.NotContains(t, sql, "OR 1=1")
		assert.Equal(t, []any{"%x' OR 1=1 --%"}, args)
	})
	t.Run("in", func(t *testing.T) {
		sql, args := Where(database.Postgres, In("id", []string{"0001", "0002"}))
		assert.Equal(t, " WHERE id IN ($1, $2)", sql)
		assert.Equal(t, []any{"0001", "0002"}, args)

		sql, args = Where(database.Postgres, In("id", []string{}))
		assert.Equal(t, " WHERE 1 = 0", sql)
		assert.Empty(t, args)
	})
	t.Run("raw", func(t *testing.T) {
		sql, _ := Where(database.SQLite, Raw("storage_type = 'container'"))
		assert.Equal(t, " WHERE storage_type = 'container'", sql)
	})
}

func TestSortSpec(t *testing.T) {
	tests := []struct {
		name string
		spec SortSpec
		col  string
		desc bool
	}{
		{"allowed asc", SortSpec{Key: "name", Order: "asc"}, "name", false},
		{"case insensitive asc", SortSpec{Key: "name", Order: "ASC"}, "name", false},
		{"default order", SortSpec{Key: "updated_at"}, "updated_at", true},
		{"garbage order", SortSpec{Key: "name", Order: "sideways"}, "name", true},
		{"unknown key", SortSpec{Key: "name; DROP TABLE items", Order: "asc"}, "created_at", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.col, itemSorts.Resolve(tt.spec))
			assert.Equal(t, tt.desc, tt.spec.Desc())
		})
	}
}

func TestSearch_SQLiteFoldsBothSides(t *testing.T) {
	sql, args := Where(database.SQLite, Search("Mic", "name", "remarks"))
	assert.Equal(t, " WHERE (unicode_lower(name) LIKE unicode_lower(?) OR unicode_lower(remarks) LIKE unicode_lower(?))", sql)
	assert.Equal(t, []any{"%Mic%", "%Mic%"}, args)
}

func TestPage(t *testing.T) {
	assert.Equal(t, Page{Page: 1, PerPage: 20}, Page{}.Normalize())
	assert.Equal(t, Page{Page: 1, PerPage: 20}, Page{Page: -3, PerPage: 0}.Normalize())
	assert.Equal(t, 40, Page{Page: 3, PerPage: 20}.Offset())
	assert.Equal(t, 0, Page{Page: 0, PerPage: 5}.Offset())

	huge := Page{Page: math.MaxInt/20 + 2, PerPage: 20}
	assert.Equal(t, math.MaxInt/20, huge.Normalize().Page)
	assert.Positive(t, huge.Offset())

	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 3, TotalPages(41, 0))
}

func TestSelect(t *testing.T) {
	sel := Select{
		Dialect:  database.Postgres,
		Base:     "SELECT * FROM items",
		Where:    []Predicate{Search("hdmi", "name"), Bool("is_disposed", false)},
		Columns:  itemSorts,
		Sort:     SortSpec{Key: "name", Order: "asc"},
		Tiebreak: "id",
		Page:     Page{Page: 2, PerPage: 10},
	}

	sql, args := sel.SQL()
	assert.Equal(t, "SELECT * FROM items WHERE (name ILIKE $1) AND COALESCE(is_disposed, FALSE) = $2"+
		" ORDER BY name ASC, id ASC LIMIT $3 OFFSET $4", sql)
	assert.Equal(t, []any{"%hdmi%", false, int64(10), int64(10)}, args)

	count, countArgs := sel.CountSQL()
	assert.Equal(t, "SELECT COUNT(*) FROM (SELECT * FROM items WHERE (name ILIKE $1)"+
		" AND COALESCE(is_disposed, FALSE) = $2) AS counted", count)
	assert.Equal(t, args[:2], countArgs)
}

func TestSelect_GroupedSQLite(t *testing.T) {
	sel := Select{
		Dialect:  database.SQLite,
		Base:     "SELECT c.*, COUNT(i.id) AS item_count FROM containers c LEFT JOIN items i ON i.container_id = c.id",
		Where:    []Predicate{Eq("c.location", "Room 101")},
		GroupBy:  "c.id",
		Columns:  SortColumns{"created_at": "c.created_at", "item_count": "item_count"},
		Sort:     SortSpec{Key: "item_count"},
		Tiebreak: "c.id",
	}

	sql, args := sel.SQL()
	assert.Equal(t, sel.Base+" WHERE c.location = ? GROUP BY c.id ORDER BY item_count DESC, c.id DESC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{"Room 101", int64(20), int64(0)}, args)

	count, _ := sel.CountSQL()
	assert.Equal(t, "SELECT COUNT(*) FROM ("+sel.Base+" WHERE c.location = ? GROUP BY c.id) AS counted", count)
}

func TestUpdate(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	t.Run("empty", func(t *testing.T) {
		_, _, err := NewUpdate(database.Postgres, "items").Touch("updated_at", now).Build("id", int64(1))
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindBadRequest))
		assert.Equal(t, "No fields to update", err.Error())
	})

	t.Run("postgres", func(t *testing.T) {
		name := "Mixer"
		var remarks *string
		u := NewUpdate(database.Postgres, "items").Touch("updated_at", now)
		SetOpt(u, "name", &name)
		SetOpt(u, "remarks", remarks)
		u.SetNull("container_id")
		assert.Equal(t, 2, u.Len())

		sql, args, err := u.Build("id", int64(7))
		require.NoError(t, err)
		assert.Equal(t, "UPDATE items SET name = $1, container_id = NULL, updated_at = $2 WHERE id = $3", sql)
		assert.Equal(t, []any{"Mixer", now, int64(7)}, args)
	})

	t.Run("sqlite", func(t *testing.T) {
		sql, args, err := NewUpdate(database.SQLite, "cable_colors").
			Set("hex_code", "#FF0000").
			Touch("updated_at", now).
			Build("id", int64(2))
		require.NoError(t, err)
		assert.Equal(t, "UPDATE cable_colors SET hex_code = ?, updated_at = ? WHERE id = ?", sql)
		assert.Equal(t, []any{"#FF0000", "2026-10-15 12:00:00.000000", int64(2)}, args)
	})
}

func TestUpdate_BuildWhere(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	sql, args, err := NewUpdate(database.Postgres, "containers").
		Set("is_disposed", true).
		Touch("updated_at", now).
		BuildWhere(In("id", []string{"A001", "A002"}))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE containers SET is_disposed = $1, updated_at = $2 WHERE id IN ($3, $4)", sql)
	assert.Equal(t, []any{true, now, "A001", "A002"}, args)
}

func TestInsert(t *testing.T) {
	sql, args := Insert(database.Postgres, "cable_colors", []string{"name", "hex_code"}, []any{"Red", "#FF0000"})
	assert.Equal(t, "INSERT INTO cable_colors (name, hex_code) VALUES ($1, $2)", sql)
	assert.Equal(t, []any{"Red", "#FF0000"}, args)
}

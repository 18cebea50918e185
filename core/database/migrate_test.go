package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesInLockstep(t *testing.T) {
	pg, err := MigrationFiles(Postgres)
	require.NoError(t, err)
	lite, err := MigrationFiles(SQLite)
	require.NoError(t, err)

	assert.NotEmpty(t, pg)
	assert.Equal(t, pg, lite)
}

func TestDeclaredColumnsInLockstep(t *testing.T) {
	pg, err := DeclaredColumns(Postgres)
	require.NoError(t, err)
	lite, err := DeclaredColumns(SQLite)
	require.NoError(t, err)

	assert.Empty(t, CompareSchemas(pg, lite))
	assert.Equal(t, pg, lite)
	assert.Contains(t, pg["items"], "cable_color_pattern")
	assert.Equal(t, []string{"id", "current_value"}, pg["label_counter"])
}

func TestMigrate(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()

	ran, err := db.Migrate(ctx)
	require.NoError(t, err)
	files, _ := MigrationFiles(SQLite)
	assert.Equal(t, files, ran)

	// Second run is a no-op.
	ran, err = db.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran)

	var value int64
	require.NoError(t, db.QueryRowContext(ctx, "SELECT current_value FROM label_counter WHERE id = 1").Scan(&value))
	assert.Equal(t, int64(0), value)
}

func TestLiveColumnsMatchDeclared(t *testing.T) {
	db := setupSQLite(t)
	_, err := db.Migrate(context.Background())
	require.NoError(t, err)

	declared, err := DeclaredColumns(SQLite)
	require.NoError(t, err)

	tables := make([]string, 0, len(declared))
	for tbl := range declared {
		tables = append(tables, tbl)
	}
	live, err := LiveColumns(db.Gorm(), tables)
	require.NoError(t, err)

	assert.Empty(t, CompareSchemas(declared, live))
}

func TestCompareSchemas(t *testing.T) {
	drift := CompareSchemas(
		map[string][]string{"items": {"id", "name", "label_id"}},
		map[string][]string{"items": {"id", "name", "legacy"}, "extra": {"id"}},
	)
	require.Len(t, drift, 2)
	assert.Equal(t, "extra", drift[0].Table)
	assert.Equal(t, []string{"id"}, drift[0].Extra)
	assert.Equal(t, "items", drift[1].Table)
	assert.Equal(t, []string{"label_id"}, drift[1].Missing)
	assert.Equal(t, []string{"legacy"}, drift[1].Extra)
}

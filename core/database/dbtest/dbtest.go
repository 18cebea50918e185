// Package dbtest opens databases for package tests: a migrated SQLite file
// under t.TempDir() and a Postgres handle over sqlmock.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/sohosai/hyperdashi-server/core/database"
)

// SQLite returns a freshly migrated SQLite database. A file is used instead
// of :memory: because every pooled connection would otherwise see its own
// empty database.
func SQLite(t *testing.T) *database.DB {
	t.Helper()
	cfg := database.Config{URL: "sqlite://" + filepath.Join(t.TempDir(), "test.db")}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(context.Background())
	require.NoError(t, err)
	return db
}

// MockPostgres returns a Postgres-dialect handle whose statements are
// matched exactly by the returned mock.
func MockPostgres(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	db, err := database.Open(context.Background(), postgres.New(postgres.Config{Conn: sqlDB}), database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = sqlDB.Close()
	})
	return db, mock
}

package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// schemaMigration records one applied migration file.
type schemaMigration struct {
	Version   string    `gorm:"column:version;primaryKey;size:255"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

// MigrationFiles lists the embedded migration file names for a dialect in
// apply order.
func MigrationFiles(d Dialect) ([]string, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
	entries, err := fs.ReadDir(migrationFS, path.Join("migrations", string(d)))
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations for %s: %w", d, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func readMigration(d Dialect, name string) (string, error) {
	b, err := migrationFS.ReadFile(path.Join("migrations", string(d), name))
	if err != nil {
		return "", fmt.Errorf("failed to read migration %s: %w", name, err)
	}
	return string(b), nil
}

// Migrate applies every embedded migration for the handle's dialect that is
// not yet recorded in schema_migrations. It returns the versions applied by
// this call.
func (d *DB) Migrate(ctx context.Context) ([]string, error) {
	db := d.gorm.WithContext(ctx)
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	var done []schemaMigration
	if err := db.Find(&done).Error; err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	applied := make(map[string]struct{}, len(done))
	for _, m := range done {
		applied[m.Version] = struct{}{}
	}

	names, err := MigrationFiles(d.dialect)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, name := range names {
		if _, ok := applied[name]; ok {
			continue
		}
		body, err := readMigration(d.dialect, name)
		if err != nil {
			return ran, err
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(body).Error; err != nil {
				return err
			}
			return tx.Create(&schemaMigration{Version: name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migration %s failed: %w", name, err)
		}
		ran = append(ran, name)
	}
	return ran, nil
}

var (
	createTablePattern = regexp.MustCompile(`(?is)CREATE TABLE IF NOT EXISTS\s+(\w+)\s*\((.*?)\n\);`)
	constraintPrefixes = []string{"constraint", "primary", "unique", "foreign", "check"}
)

// DeclaredColumns parses the embedded migrations of a dialect and returns the
// column names declared per table, in declaration order.
func DeclaredColumns(d Dialect) (map[string][]string, error) {
	names, err := MigrationFiles(d)
	if err != nil {
		return nil, err
	}
	tables := make(map[string][]string)
	for _, name := range names {
		body, err := readMigration(d, name)
		if err != nil {
			return nil, err
		}
		for _, m := range createTablePattern.FindAllStringSubmatch(body, -1) {
			table := strings.ToLower(m[1])
			for _, line := range strings.Split(m[2], "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				col := strings.ToLower(strings.Fields(line)[0])
				if isConstraint(col) {
					continue
				}
				tables[table] = append(tables[table], col)
			}
		}
	}
	return tables, nil
}

func isConstraint(word string) bool {
	for _, p := range constraintPrefixes {
		if word == p {
			return true
		}
	}
	return false
}

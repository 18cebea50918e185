package database

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo describes one live column.
type ColumnInfo struct {
	Field string
	Type  string
}

// GetTableColumns retrieves the column definitions for a given table.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	if db.Dialector.Name() == string(SQLite) {
		// SQLite uses PRAGMA table_info
		type sqliteColumn struct {
			Cid       int
			Name      string
			Type      string
			Notnull   int
			DfltValue *string
			Pk        int
		}
		var sqliteCols []sqliteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&sqliteCols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range sqliteCols {
			columns = append(columns, ColumnInfo{
				Field: strings.ToLower(col.Name),
				Type:  strings.ToLower(col.Type),
			})
		}
		return columns, nil
	}

	err := db.Raw(
		"SELECT column_name AS field, data_type AS type FROM information_schema.columns "+
			"WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position",
		tableName,
	).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}

// SchemaDrift lists the columns one side has and the other lacks.
type SchemaDrift struct {
	Table   string   `json:"table"`
	Missing []string `json:"missing"`
	Extra   []string `json:"extra"`
}

// CompareSchemas compares expected against actual column names per table.
// Tables absent from actual report every expected column as missing.
func CompareSchemas(expected, actual map[string][]string) []SchemaDrift {
	tables := make([]string, 0, len(expected))
	for t := range expected {
		tables = append(tables, t)
	}
	for t := range actual {
		if _, ok := expected[t]; !ok {
			tables = append(tables, t)
		}
	}
	sort.Strings(tables)

	var drift []SchemaDrift
	for _, t := range tables {
		exp := toSet(expected[t])
		act := toSet(actual[t])
		d := SchemaDrift{Table: t}
		for c := range exp {
			if _, ok := act[c]; !ok {
				d.Missing = append(d.Missing, c)
			}
		}
		for c := range act {
			if _, ok := exp[c]; !ok {
				d.Extra = append(d.Extra, c)
			}
		}
		if len(d.Missing) > 0 || len(d.Extra) > 0 {
			sort.Strings(d.Missing)
			sort.Strings(d.Extra)
			drift = append(drift, d)
		}
	}
	return drift
}

// LiveColumns reads the column names of every table in tables.
func LiveColumns(db *gorm.DB, tables []string) (map[string][]string, error) {
	out := make(map[string][]string, len(tables))
	for _, t := range tables {
		cols, err := GetTableColumns(db, t)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(cols))
		for _, c := range cols {
			names = append(names, c.Field)
		}
		out[t] = names
	}
	return out, nil
}

func toSet(list []string) map[string]struct{} {
	s := make(map[string]struct{}, len(list))
	for _, v := range list {
		s[v] = struct{}{}
	}
	return s
}

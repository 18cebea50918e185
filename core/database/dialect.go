package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sohosai/hyperdashi-server/core/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Dialect identifies one of the two supported SQL engines. The values match
// gorm's Dialector.Name() for the corresponding driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// SQLiteTimeLayout is the naive UTC text form used for SQLite timestamps.
// It is fixed width so lexical order equals chronological order.
const SQLiteTimeLayout = "2006-01-02 15:04:05.000000"

// ParseURL classifies a connection URL and returns the dialect together with
// the DSN to hand to the driver.
func ParseURL(raw string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return Postgres, raw, nil
	case strings.HasPrefix(raw, "sqlite:"):
		rest := strings.TrimPrefix(strings.TrimPrefix(raw, "sqlite:"), "//")
		if rest == "" {
			return "", "", apperror.Config("Invalid database URL. SQLite path is empty")
		}
		return SQLite, rest, nil
	default:
		return "", "", apperror.Config("Invalid database URL. Must start with postgres:// or sqlite://")
	}
}

// sqliteDSN appends the connection parameters every SQLite handle needs.
// _txlock=immediate makes BEGIN take the write lock up front, which is what
// serializes label allocation on this engine.
func sqliteDSN(pathAndQuery string, timeoutSeconds int) (string, error) {
	path, rawQuery, _ := strings.Cut(pathAndQuery, "?")
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", apperror.Config("Invalid SQLite parameters: %v", err)
	}
	// sqlx-style open mode is implied by the driver default (read/write/create).
	params.Del("mode")

	defaults := map[string]string{
		"_busy_timeout": strconv.Itoa(timeoutSeconds * 1000),
		"_foreign_keys": "1",
		"_journal_mode": "WAL",
		"_txlock":       "immediate",
	}
	for k, v := range defaults {
		if params.Get(k) == "" {
			params.Set(k, v)
		}
	}
	return path + "?" + params.Encode(), nil
}

// sqliteDriver is mattn's driver with unicode_lower registered on every
// connection. SQLite's own LOWER and LIKE only fold ASCII.
const sqliteDriver = "sqlite3_hyperdashi"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unicode_lower", unicodeLower, true)
		},
	})
}

// unicodeLower folds text the way Go does. NULL arrives as a nil []byte and
// stays NULL.
func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	}
	return v
}

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Like returns the case-insensitive pattern operator.
func (d Dialect) Like() string {
	if d == Postgres {
		return "ILIKE"
	}
	return "LIKE"
}

// Fold wraps a text expression for comparison under Like. Postgres ILIKE
// already folds Unicode case.
func (d Dialect) Fold(expr string) string {
	if d == Postgres {
		return expr
	}
	return "unicode_lower(" + expr + ")"
}

// BoolExpr wraps a boolean column so NULL and every stored encoding compare
// as a proper boolean. Compare the result against BoolArg.
func (d Dialect) BoolExpr(col string) string {
	if d == Postgres {
		return "COALESCE(" + col + ", FALSE)"
	}
	return "(CASE WHEN LOWER(CAST(" + col + " AS TEXT)) IN ('1', 'true') THEN 1 ELSE 0 END)"
}

// BoolArg encodes a boolean bind value.
func (d Dialect) BoolArg(v bool) any {
	if d == Postgres {
		return v
	}
	if v {
		return 1
	}
	return 0
}

// BoolLiteral renders a boolean constant for use inside fixed SQL text such
// as join conditions.
func (d Dialect) BoolLiteral(v bool) string {
	switch {
	case d == Postgres && v:
		return "TRUE"
	case d == Postgres:
		return "FALSE"
	case v:
		return "1"
	}
	return "0"
}

// TimeArg encodes a timestamp bind value. SQLite stores naive UTC text.
func (d Dialect) TimeArg(t time.Time) any {
	if d == Postgres {
		return t.UTC()
	}
	return t.UTC().Format(SQLiteTimeLayout)
}

// ForUpdate returns the row-lock suffix for a SELECT inside a transaction.
// SQLite transactions already hold the database write lock.
func (d Dialect) ForUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// InsertReturningID executes an INSERT and returns the generated id.
func (d Dialect) InsertReturningID(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	if d == Postgres {
		var id int64
		if err := q.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// IsUniqueViolation reports whether err is a unique or primary key conflict.
func (d Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Valid reports whether d is a supported dialect.
func (d Dialect) Valid() bool {
	return d == Postgres || d == SQLite
}

func (d Dialect) String() string {
	return string(d)
}

func dialectOf(name string) (Dialect, error) {
	d := Dialect(name)
	if !d.Valid() {
		return "", fmt.Errorf("unsupported gorm dialector %q", name)
	}
	return d, nil
}

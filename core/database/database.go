package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Querier is the statement surface shared by the pool and an open transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Database is the capability every repository depends on: the dialect in
// use, pooled statements, and transactions.
type Database interface {
	Querier
	// Dialect returns the engine the handle is bound to for its lifetime.
	Dialect() Dialect
	// InTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise.
	InTx(ctx context.Context, fn func(q Querier) error) error
}

// DB is the Database implementation backed by a gorm connection pool.
type DB struct {
	gorm    *gorm.DB
	sqlDB   *sql.DB
	dialect Dialect
}

var _ Database = (*DB)(nil)

// Connect classifies cfg.URL, opens the pool for the matching dialect and
// verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	dialect, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch dialect {
	case Postgres:
		dialector = postgres.Open(dsn)
	case SQLite:
		full, err := sqliteDSN(dsn, cfg.timeoutSeconds())
		if err != nil {
			return nil, err
		}
		dialector = sqlite.New(sqlite.Config{DriverName: sqliteDriver, DSN: full})
	}

	return Open(ctx, dialector, cfg)
}

// Open wraps an arbitrary gorm dialector. Tests use it to hand in a dialector
// built around a mock connection.
func Open(ctx context.Context, dialector gorm.Dialector, cfg Config) (*DB, error) {
	// Suppress GORM logging; repositories log through zap.
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	dialect, err := dialectOf(gormDB.Dialector.Name())
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Same pool size for both dialects.
	sqlDB.SetMaxOpenConns(cfg.maxConnections())
	sqlDB.SetMaxIdleConns(cfg.maxConnections())
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.timeoutSeconds())*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{gorm: gormDB, sqlDB: sqlDB, dialect: dialect}, nil
}

// Dialect returns the engine the handle is bound to.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Gorm exposes the underlying gorm handle for schema tooling.
func (d *DB) Gorm() *gorm.DB {
	return d.gorm
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sqlDB.ExecContext(ctx, query, args...)
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sqlDB.QueryContext(ctx, query, args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sqlDB.QueryRowContext(ctx, query, args...)
}

// InTx runs fn inside a gorm-managed transaction. A panic in fn rolls back
// and is re-raised.
func (d *DB) InTx(ctx context.Context, fn func(q Querier) error) error {
	return d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, ok := tx.Statement.ConnPool.(Querier)
		if !ok {
			return fmt.Errorf("transaction connection %T does not accept raw statements", tx.Statement.ConnPool)
		}
		return fn(q)
	})
}

// SQL exposes the pool for collectors that read sql.DBStats.
func (d *DB) SQL() *sql.DB {
	return d.sqlDB
}

// Stats reports pool statistics.
func (d *DB) Stats() sql.DBStats {
	return d.sqlDB.Stats()
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.sqlDB.Close()
}

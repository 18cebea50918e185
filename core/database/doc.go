// Package database owns the connection to one of the two supported SQL
// engines and everything that differs between them.
//
// # Dialects
//
// The engine is chosen once at startup from the URL scheme (postgres://,
// postgresql:// or sqlite://) and never changes for the lifetime of the
// process. Dialect exposes the only syntax differences the rest of the
// application is allowed to care about:
//
//   - Placeholder: $n versus ?
//   - Like: ILIKE versus LIKE
//   - BoolExpr / BoolArg: native booleans versus 0/1 or text flags
//   - TimeArg: timezone-aware versus naive UTC timestamps
//   - ForUpdate, InsertReturningID, IsUniqueViolation
//
// # Database
//
// Database is the capability interface repositories depend on. DB implements
// it on top of a gorm connection pool (fixed at 10 connections) and runs
// transactions through gorm so the callback receives the *sql.Tx.
//
// # Migrations
//
// Two parallel migration sets are embedded under migrations/postgres and
// migrations/sqlite. They carry identical file names and column sets;
// DeclaredColumns and CompareSchemas verify that in tests and in the
// integrity check.
//
// # Usage
//
//	db, err := database.Connect(ctx, cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database

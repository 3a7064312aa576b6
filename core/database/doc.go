// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure connections based on the
// application's configuration. Three drivers are supported:
//   - mysql: go-sql-driver through the GORM MySQL dialector.
//   - postgres: pgx registered as a database/sql driver, handed to the GORM Postgres dialector.
//   - sqlite: the pure Go modernc.org/sqlite driver through the GORM SQLite dialector.
//     The pool is pinned to a single connection so ":memory:" databases are shared.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let feature stores verify that the live
// table carries the columns they read and write before a sync is attempted.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "departments", []string{"depcode", "depjob"})
package database

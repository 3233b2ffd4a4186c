// Package database opens and migrates the SQLite store behind the action
// history.
//
// The wrapper is deliberately thin: Open configures WAL mode, the busy
// timeout and file permissions (0600), Migrate applies the embedded
// .up.sql files, and the embedded *sql.DB is used directly by the history
// repository for queries.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.History.Path,
//	    WALMode:     cfg.History.WALMode,
//	    BusyTimeout: cfg.History.BusyTimeout,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive-only: new columns are nullable or defaulted,
// and nothing is dropped or renamed. The .down.sql files next to each
// migration exist for manual rollback, never automatic.
package database

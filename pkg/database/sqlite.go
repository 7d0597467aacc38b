package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteDriver is the driver name registered by modernc.org/sqlite.
const SQLiteDriver = "sqlite"

func init() {
	sqlx.BindDriver(SQLiteDriver, sqlx.QUESTION)
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
	"PRAGMA busy_timeout = 5000;",
}

// NewSQLite opens (creating when needed) the SQLite database at path.
func NewSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sqlx.Open(SQLiteDriver, path)
	if err != nil {
		return nil, err
	}
	// A single writer avoids SQLITE_BUSY between the autosave worker and
	// request handlers.
	db.SetMaxOpenConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma %q: %w", pragma, err)
		}
	}
	return db, nil
}

package clients

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"irtracker/lib/constants"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteClient opens (creating if needed) the console's local session database
func NewSQLiteClient(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	db, err := sql.Open(constants.SQLITE_DRIVER_NAME, path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

package sqlitelocal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var (
	ErrDBNameNotFound = errors.New("db name not found")
	ErrDBPathNotFound = errors.New("db path not found")
)

// NewSQLiteLocal opens (creating if needed) path/dbName.db in WAL mode.
// Writers take the lock at BEGIN so concurrent reorders queue on the busy
// timeout instead of failing mid transaction.
func NewSQLiteLocal(ctx context.Context, dbName, path string) (*sql.DB, string, func(), error) {
	if dbName == "" {
		return nil, "", nil, ErrDBNameNotFound
	}
	if path == "" {
		return nil, "", nil, ErrDBPathNotFound
	}

	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, "", nil, fmt.Errorf("failed to create directory: %w", err)
	}
	dbFile := filepath.Join(path, dbName+".db")

	params := url.Values{
		"mode":    []string{"rwc"},
		"_txlock": []string{"immediate"},
		"_pragma": []string{
			"journal_mode(WAL)",
			"busy_timeout(10000)",
			"foreign_keys(1)",
			"synchronous(NORMAL)",
		},
	}
	dsn := fmt.Sprintf("file:%s?%s", dbFile, params.Encode())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}
	return db, dbFile, cleanup, nil
}

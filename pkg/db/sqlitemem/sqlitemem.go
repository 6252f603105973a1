package sqlitemem

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// NewSQLiteMem opens a private in-memory database. Every call gets its own
// name so parallel tests never share state.
func NewSQLiteMem(ctx context.Context) (*sql.DB, func(), error) {
	uniqueName := ulid.Make().String()
	connStr := fmt.Sprintf("file:memdb_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_txlock=immediate", uniqueName)

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a shared-cache memory db lives as long as one connection does
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}
	return db, cleanup, nil
}

// Package migrations holds the schema migrations of the ranked demo tables.
// Each migration registers itself with internal/migrate from init.
package migrations

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/the-dev-tools/orderedmodel/internal/migrate"
)

// Config controls how migrations are applied.
type Config struct {
	BusyTimeout time.Duration
}

// Run applies every registered migration that has not finished yet.
func Run(ctx context.Context, db *sql.DB, cfg Config, logger *slog.Logger) error {
	runner, err := migrate.NewRunner(db, migrate.Config{BusyTimeout: cfg.BusyTimeout}, logger)
	if err != nil {
		return err
	}
	return runner.ApplyAll(ctx)
}

package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/orderedmodel/internal/config"
	"github.com/the-dev-tools/orderedmodel/internal/migrate"
	"github.com/the-dev-tools/orderedmodel/pkg/service/sranked"
)

// MigrationDensifyRanksID is the ULID for the rank densify migration.
const MigrationDensifyRanksID = "01KJ2M9V6XN8P0S2G4H6J8K0MA"

// MigrationDensifyRanksChecksum is a stable hash of this migration.
const MigrationDensifyRanksChecksum = "sha256:densify-ranks-v1"

func init() {
	if err := migrate.Register(migrate.Migration{
		ID:          MigrationDensifyRanksID,
		Checksum:    MigrationDensifyRanksChecksum,
		Description: "Renumber imported ranks of the demo tables to 0..n-1 per partition",
		Apply:       applyDensifyRanks,
		Validate:    validateDensifyRanks,
	}); err != nil {
		panic("failed to register densify ranks migration: " + err.Error())
	}
}

func applyDensifyRanks(ctx context.Context, tx *sql.Tx) error {
	for _, m := range config.DefaultModels() {
		svc, err := sranked.New(nil, m, slog.Default())
		if err != nil {
			return err
		}
		if _, err := svc.CompactTx(ctx, tx); err != nil {
			return fmt.Errorf("densify %s: %w", m.Table, err)
		}
	}
	return nil
}

func validateDensifyRanks(ctx context.Context, db *sql.DB) error {
	for _, m := range config.DefaultModels() {
		svc, err := sranked.New(db, m, slog.Default())
		if err != nil {
			return err
		}
		if err := svc.VerifyAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

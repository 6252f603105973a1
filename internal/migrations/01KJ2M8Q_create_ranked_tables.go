package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/the-dev-tools/orderedmodel/internal/migrate"
)

// MigrationCreateRankedTablesID is the ULID for the demo ranked tables migration.
const MigrationCreateRankedTablesID = "01KJ2M8Q4ZT6W3R5Y7B9C1D2EF"

// MigrationCreateRankedTablesChecksum is a stable hash of this migration.
const MigrationCreateRankedTablesChecksum = "sha256:create-ranked-tables-v1"

func init() {
	if err := migrate.Register(migrate.Migration{
		ID:          MigrationCreateRankedTablesID,
		Checksum:    MigrationCreateRankedTablesChecksum,
		Description: "Create items, answers and pizza_toppings ranked tables",
		Apply:       applyCreateRankedTables,
		Validate:    validateCreateRankedTables,
	}); err != nil {
		panic("failed to register ranked tables migration: " + err.Error())
	}
}

// Ranks are unique per partition. The unpartitioned items table is unique
// on the rank alone.
var rankedTablesDDL = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id BLOB NOT NULL PRIMARY KEY,
		"order" INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_items_order ON items("order")`,

	`CREATE TABLE IF NOT EXISTS questions (
		id BLOB NOT NULL PRIMARY KEY,
		text TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id BLOB NOT NULL PRIMARY KEY,
		question_id BLOB NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		"order" INTEGER NOT NULL,
		answer TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_question_order ON answers(question_id, "order")`,

	`CREATE TABLE IF NOT EXISTS pizzas (
		id BLOB NOT NULL PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS toppings (
		id BLOB NOT NULL PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS pizza_toppings (
		id BLOB NOT NULL PRIMARY KEY,
		pizza_id BLOB NOT NULL REFERENCES pizzas(id) ON DELETE CASCADE,
		topping_id BLOB REFERENCES toppings(id) ON DELETE SET NULL,
		"order" INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_pizza_toppings_pizza_order ON pizza_toppings(pizza_id, "order")`,
}

var rankedTables = []string{"items", "questions", "answers", "pizzas", "toppings", "pizza_toppings"}

func applyCreateRankedTables(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range rankedTablesDDL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create ranked tables: %w", err)
		}
	}
	return nil
}

func validateCreateRankedTables(ctx context.Context, db *sql.DB) error {
	for _, table := range rankedTables {
		var count int
		err := db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='table' AND name=?
		`, table).Scan(&count)
		if err != nil {
			return fmt.Errorf("validate %s table: %w", table, err)
		}
		if count == 0 {
			return fmt.Errorf("%s table not found", table)
		}
	}
	return nil
}

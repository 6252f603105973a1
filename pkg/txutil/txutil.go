// Package txutil runs a function inside a database transaction.
package txutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/the-dev-tools/orderedmodel/pkg/db"
)

// Run begins a transaction on conn, calls fn and commits when fn returns nil.
// Any error rolls the transaction back and is returned unchanged.
func Run(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer db.TxnRollback(tx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/orderedmodel/pkg/db/sqlitemem"
	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
)

const (
	itemsSchemaID  = "01KJ3A00000000000000000001"
	itemsDensifyID = "01KJ3A00000000000000000002"
)

func createItems(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range []string{
		`CREATE TABLE items (id BLOB NOT NULL PRIMARY KEY, "order" INTEGER NOT NULL)`,
		`CREATE UNIQUE INDEX idx_items_order ON items("order")`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// densifyItems renumbers items to 0..n-1 keeping their relative order. Rows
// are parked on negative ranks first so the unique index never trips.
func densifyItems(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM items ORDER BY "order"`)
	if err != nil {
		return err
	}
	var ids []idwrap.IDWrap
	for rows.Next() {
		var id idwrap.IDWrap
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE items SET "order" = -"order" - 1`); err != nil {
		return err
	}
	for rank, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE items SET "order" = ? WHERE id = ?`, rank, id); err != nil {
			return err
		}
	}
	return nil
}

func itemsDense(ctx context.Context, db *sql.DB) error {
	var n, lo, hi sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*), MIN("order"), MAX("order") FROM items`).Scan(&n, &lo, &hi)
	if err != nil {
		return err
	}
	if n.Int64 > 0 && (lo.Int64 != 0 || hi.Int64 != n.Int64-1) {
		return fmt.Errorf("items ranks span %d..%d over %d rows", lo.Int64, hi.Int64, n.Int64)
	}
	return nil
}

func newRankedRunner(t *testing.T) (*sql.DB, *Runner) {
	t.Helper()
	ctx := context.Background()
	db, cleanup, err := sqlitemem.NewSQLiteMem(ctx)
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(cleanup)

	ResetForTesting()
	t.Cleanup(ResetForTesting)

	runner, err := NewRunner(db, Config{}, nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return db, runner
}

func insertItems(t *testing.T, db *sql.DB, ranks ...int) []idwrap.IDWrap {
	t.Helper()
	ids := make([]idwrap.IDWrap, len(ranks))
	for i, rank := range ranks {
		ids[i] = idwrap.NewNow()
		if _, err := db.Exec(`INSERT INTO items (id, "order") VALUES (?, ?)`, ids[i], rank); err != nil {
			t.Fatalf("insert item rank %d: %v", rank, err)
		}
	}
	return ids
}

func TestRunnerCreatesRankedSchemaOnce(t *testing.T) {
	ctx := context.Background()
	db, runner := newRankedRunner(t)

	var applies int
	require.NoError(t, Register(Migration{
		ID:       itemsSchemaID,
		Checksum: "sha256:items-v1",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			applies++
			return createItems(ctx, tx)
		},
	}))

	require.NoError(t, runner.ApplyAll(ctx))
	require.NoError(t, runner.ApplyAll(ctx))
	assert.Equal(t, 1, applies)

	insertItems(t, db, 0)
	_, err := db.ExecContext(ctx, `INSERT INTO items (id, "order") VALUES (?, 0)`, idwrap.NewNow())
	assert.Error(t, err, "unique rank index should reject a second rank 0")

	rec, err := NewStore(db).GetRecord(ctx, itemsSchemaID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, rec.Status)
	assert.Equal(t, 1, rec.Attempts)
}

func TestRunnerChecksumGuardsEditedSchema(t *testing.T) {
	ctx := context.Background()
	db, runner := newRankedRunner(t)

	require.NoError(t, Register(Migration{ID: itemsSchemaID, Checksum: "sha256:items-v1", Apply: createItems}))
	require.NoError(t, runner.ApplyAll(ctx))
	insertItems(t, db, 0, 1)

	// an edited schema migration must not silently re-run over live data
	ResetForTesting()
	require.NoError(t, Register(Migration{
		ID:       itemsSchemaID,
		Checksum: "sha256:items-v2",
		Apply: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `DROP TABLE items`)
			return err
		},
	}))
	err := runner.ApplyAll(ctx)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestRunnerDensifiesGappedItems(t *testing.T) {
	ctx := context.Background()
	db, runner := newRankedRunner(t)

	require.NoError(t, Register(Migration{ID: itemsSchemaID, Checksum: "sha256:items-v1", Apply: createItems}))
	require.NoError(t, Register(Migration{
		ID:       itemsDensifyID,
		Checksum: "sha256:items-densify-v1",
		Apply:    densifyItems,
		Validate: itemsDense,
	}))

	require.NoError(t, runner.ApplyTo(ctx, itemsSchemaID))
	ids := insertItems(t, db, 3, 0, 9, 4)
	if err := itemsDense(ctx, db); err == nil {
		t.Fatalf("fixture should start with gaps")
	}

	require.NoError(t, runner.ApplyAll(ctx))

	want := map[idwrap.IDWrap]int{ids[1]: 0, ids[0]: 1, ids[3]: 2, ids[2]: 3}
	for id, rank := range want {
		var got int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT "order" FROM items WHERE id = ?`, id).Scan(&got))
		assert.Equal(t, rank, got, "rank of %s", id)
	}
}

func TestRunnerRetriesAfterFailedValidation(t *testing.T) {
	ctx := context.Background()
	db, runner := newRankedRunner(t)

	require.NoError(t, Register(Migration{ID: itemsSchemaID, Checksum: "sha256:items-v1", Apply: createItems}))
	// a densify that forgets to renumber leaves the gap for Validate to find
	require.NoError(t, Register(Migration{
		ID:       itemsDensifyID,
		Checksum: "sha256:items-densify-v1",
		Apply:    func(context.Context, *sql.Tx) error { return nil },
		Validate: itemsDense,
	}))
	require.NoError(t, runner.ApplyTo(ctx, itemsSchemaID))
	insertItems(t, db, 0, 2)

	err := runner.ApplyAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate "+itemsDensifyID)

	rec, err := NewStore(db).GetRecord(ctx, itemsDensifyID)
	require.NoError(t, err)
	assert.Equal(t, StatusStarted, rec.Status)
	assert.Contains(t, rec.LastError.String, "ranks span 0..2")

	ResetForTesting()
	require.NoError(t, Register(Migration{ID: itemsSchemaID, Checksum: "sha256:items-v1", Apply: createItems}))
	require.NoError(t, Register(Migration{
		ID:       itemsDensifyID,
		Checksum: "sha256:items-densify-v1",
		Apply:    densifyItems,
		Validate: itemsDense,
	}))
	require.NoError(t, runner.ApplyAll(ctx))

	rec, err = NewStore(db).GetRecord(ctx, itemsDensifyID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, rec.Status)
	assert.Equal(t, 2, rec.Attempts)
}

package sqlitelocal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteLocal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, file, cleanup, err := NewSQLiteLocal(ctx, "ordered", dir)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, filepath.Join(dir, "ordered.db"), file)

	var mode string
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNewSQLiteLocalMissingArgs(t *testing.T) {
	ctx := context.Background()

	_, _, _, err := NewSQLiteLocal(ctx, "", t.TempDir())
	assert.ErrorIs(t, err, ErrDBNameNotFound)

	_, _, _, err = NewSQLiteLocal(ctx, "ordered", "")
	assert.ErrorIs(t, err, ErrDBPathNotFound)
}

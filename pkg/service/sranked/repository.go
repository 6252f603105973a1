package sranked

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
	"github.com/the-dev-tools/orderedmodel/pkg/movable"
)

// Repo is the transaction-bound storage the ranking engine runs against.
type Repo struct {
	db    DBTX
	model mranked.Model
	st    statements
}

var _ movable.Repository = (*Repo)(nil)

func (r *Repo) Model() mranked.Model {
	return r.model
}

func (r *Repo) Get(ctx context.Context, id idwrap.IDWrap) (mranked.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, r.st.get, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mranked.Record{}, fmt.Errorf("%s %s: %w", r.model.Name, id, ErrNoRecordFound)
		}
		return mranked.Record{}, err
	}
	return rec, nil
}

func (r *Repo) List(ctx context.Context, partition *idwrap.IDWrap) ([]mranked.Record, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if r.model.Partitioned() {
		rows, err = r.db.QueryContext(ctx, r.st.listPartition, partitionArg(partition))
	} else {
		rows, err = r.db.QueryContext(ctx, r.st.listPartition)
	}
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *Repo) ListAll(ctx context.Context) ([]mranked.Record, error) {
	rows, err := r.db.QueryContext(ctx, r.st.listAll)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *Repo) GetItem(ctx context.Context, id idwrap.IDWrap) (movable.Item, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return movable.Item{}, err
	}
	return toItem(rec), nil
}

func (r *Repo) ListPartition(ctx context.Context, partition *idwrap.IDWrap) ([]movable.Item, error) {
	recs, err := r.List(ctx, partition)
	if err != nil {
		return nil, err
	}
	items := make([]movable.Item, len(recs))
	for i, rec := range recs {
		items[i] = toItem(rec)
	}
	return items, nil
}

// UpdateRanks writes in two passes. Affected rows are parked on distinct
// negative ranks first so a unique (partition, rank) index never sees two
// rows on the same rank in between statements.
func (r *Repo) UpdateRanks(ctx context.Context, updates []movable.RankUpdate) error {
	for i, u := range updates {
		res, err := r.db.ExecContext(ctx, r.st.updateRank, -(i + 1), u.ID)
		if err != nil {
			return fmt.Errorf("park rank of %s: %w", u.ID, err)
		}
		if err := ensureRowsAffected(res, "park rank"); err != nil {
			return err
		}
	}
	for _, u := range updates {
		res, err := r.db.ExecContext(ctx, r.st.updateRank, u.To, u.ID)
		if err != nil {
			return fmt.Errorf("update rank of %s: %w", u.ID, err)
		}
		if err := ensureRowsAffected(res, "update rank"); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Insert(ctx context.Context, rec mranked.Record) error {
	if r.model.Partitioned() && rec.Partition == nil {
		return fmt.Errorf("%w: %s requires a partition", movable.ErrInvalidArgument, r.model.Name)
	}
	args := []any{rec.ID, rec.Order}
	if r.model.Partitioned() {
		args = append(args, partitionArg(rec.Partition))
	}
	if r.model.LabelColumn != "" {
		args = append(args, rec.Label)
	}
	_, err := r.db.ExecContext(ctx, r.st.insert, args...)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s partition %s does not exist", movable.ErrInvalidArgument, r.model.Name, partitionLabel(rec.Partition))
	}
	if err != nil {
		return fmt.Errorf("insert %s: %w", r.model.Name, err)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func (r *Repo) Delete(ctx context.Context, id idwrap.IDWrap) error {
	res, err := r.db.ExecContext(ctx, r.st.delete, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.model.Name, err)
	}
	return ensureRowsAffected(res, "delete")
}

func toItem(rec mranked.Record) movable.Item {
	return movable.Item{ID: rec.ID, Partition: rec.Partition, Order: rec.Order}
}

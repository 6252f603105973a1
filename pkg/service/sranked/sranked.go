// Package sranked stores ranked records in SQL tables described by
// mranked.Model and exposes the reorder operations on them.
package sranked

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
	"github.com/the-dev-tools/orderedmodel/pkg/movable"
	"github.com/the-dev-tools/orderedmodel/pkg/txutil"
)

var ErrNoRecordFound = movable.ErrItemNotFound

type RankedService struct {
	db      *sql.DB
	model   mranked.Model
	st      statements
	logger  *slog.Logger
	manager *movable.Manager[*Repo]
}

var _ movable.Store[*Repo] = (*RankedService)(nil)

func New(db *sql.DB, model mranked.Model, logger *slog.Logger) (*RankedService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	model = model.WithDefaults()
	if err := model.Validate(); err != nil {
		return nil, err
	}
	s := &RankedService{
		db:     db,
		model:  model,
		st:     buildStatements(model),
		logger: logger.With("model", model.Name),
	}
	s.manager = movable.NewManager[*Repo](s, s.logger)
	return s, nil
}

func (s *RankedService) Model() mranked.Model {
	return s.model
}

// TX binds a repository to tx. A nil tx reads straight from the pool.
func (s *RankedService) TX(tx *sql.Tx) *Repo {
	if tx == nil {
		return &Repo{db: s.db, model: s.model, st: s.st}
	}
	return &Repo{db: tx, model: s.model, st: s.st}
}

func (s *RankedService) WithTx(ctx context.Context, fn func(ctx context.Context, repo *Repo) error) error {
	return txutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		return fn(ctx, s.TX(tx))
	})
}

// Manager returns the reorder engine bound to this table.
func (s *RankedService) Manager() *movable.Manager[*Repo] {
	return s.manager
}

func (s *RankedService) Get(ctx context.Context, id idwrap.IDWrap) (mranked.Record, error) {
	return s.TX(nil).Get(ctx, id)
}

func (s *RankedService) List(ctx context.Context, partition *idwrap.IDWrap) ([]mranked.Record, error) {
	return s.TX(nil).List(ctx, partition)
}

func (s *RankedService) ListAll(ctx context.Context) ([]mranked.Record, error) {
	return s.TX(nil).ListAll(ctx)
}

// Create appends a record to the end of its partition and returns it with
// the assigned id and rank.
func (s *RankedService) Create(ctx context.Context, partition *idwrap.IDWrap, label string) (mranked.Record, error) {
	if !s.model.Partitioned() {
		partition = nil
	}
	rec := mranked.Record{ID: idwrap.NewNow(), Partition: partition, Label: label}
	order, err := s.manager.Append(ctx, partition, func(ctx context.Context, repo *Repo, order int) error {
		rec.Order = order
		return repo.Insert(ctx, rec)
	})
	if err != nil {
		return mranked.Record{}, fmt.Errorf("create %s: %w", s.model.Name, err)
	}
	rec.Order = order
	s.logger.DebugContext(ctx, "ranked record created", "record_id", rec.ID.String(), "order", order)
	return rec, nil
}

// Delete removes a record and closes the gap it leaves.
func (s *RankedService) Delete(ctx context.Context, id idwrap.IDWrap) error {
	return s.manager.Remove(ctx, id)
}

// CompactAll renumbers every partition of the table in one transaction and
// returns the number of rows whose rank changed.
func (s *RankedService) CompactAll(ctx context.Context) (int, error) {
	var total int
	err := txutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		total, err = s.CompactTx(ctx, tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// CompactTx is CompactAll inside a caller owned transaction.
func (s *RankedService) CompactTx(ctx context.Context, tx *sql.Tx) (int, error) {
	repo := s.TX(tx)
	m := movable.NewManager[*Repo](boundStore{repo: repo}, s.logger)
	partitions, err := partitionsOf(ctx, repo)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, p := range partitions {
		n, err := m.Compact(ctx, p)
		if err != nil {
			return total, err
		}
		total += n
	}
	if total > 0 {
		s.logger.InfoContext(ctx, "compacted ranked table", "rows", total, "partitions", len(partitions))
	}
	return total, nil
}

// VerifyAll checks every partition of the table.
func (s *RankedService) VerifyAll(ctx context.Context) error {
	partitions, err := partitionsOf(ctx, s.TX(nil))
	if err != nil {
		return err
	}
	for _, p := range partitions {
		if err := s.manager.Verify(ctx, p); err != nil {
			return fmt.Errorf("%s partition %s: %w", s.model.Name, partitionLabel(p), err)
		}
	}
	return nil
}

// boundStore runs every engine operation on one already open transaction.
type boundStore struct {
	repo *Repo
}

func (b boundStore) WithTx(ctx context.Context, fn func(ctx context.Context, repo *Repo) error) error {
	return fn(ctx, b.repo)
}

func partitionsOf(ctx context.Context, repo *Repo) ([]*idwrap.IDWrap, error) {
	recs, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*idwrap.IDWrap, 0)
	seen := make(map[idwrap.IDWrap]bool)
	global := false
	for _, rec := range recs {
		if rec.Partition == nil {
			if !global {
				global = true
				out = append(out, nil)
			}
			continue
		}
		if !seen[*rec.Partition] {
			seen[*rec.Partition] = true
			out = append(out, rec.Partition)
		}
	}
	return out, nil
}

func partitionLabel(p *idwrap.IDWrap) string {
	if p == nil {
		return "<global>"
	}
	return p.String()
}

// Package movabletest provides an in-memory movable.Store for tests.
package movabletest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/movable"
)

// ErrInjected is returned by a MemRepo once its write budget is spent.
var ErrInjected = errors.New("movabletest: injected storage failure")

// MemStore keeps rows in a map and gives every WithTx call a private copy
// that is only published on success.
type MemStore struct {
	mu   sync.Mutex
	rows map[idwrap.IDWrap]movable.Item
	// FailAfter, when positive, makes the n-th rank write of the next
	// transaction fail. It resets after firing.
	FailAfter int
}

var _ movable.Store[*MemRepo] = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{rows: make(map[idwrap.IDWrap]movable.Item)}
}

// Seed inserts rows as given, without touching their ranks.
func (s *MemStore) Seed(items ...movable.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.rows[it.ID] = it
	}
}

// Add appends a new row to partition and returns its id.
func (s *MemStore) Add(partition *idwrap.IDWrap) idwrap.IDWrap {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.rows {
		if idwrap.Equal(it.Partition, partition) {
			n++
		}
	}
	id := idwrap.NewNow()
	s.rows[id] = movable.Item{ID: id, Partition: partition, Order: n}
	return id
}

// Order returns the current rank of id, or -1 when it does not exist.
func (s *MemStore) Order(id idwrap.IDWrap) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.rows[id]
	if !ok {
		return -1
	}
	return it.Order
}

// Partition returns the ids of partition sorted by rank.
func (s *MemStore) Partition(partition *idwrap.IDWrap) []idwrap.IDWrap {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := listPartition(s.rows, partition)
	ids := make([]idwrap.IDWrap, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// Snapshot returns a copy of all rows.
func (s *MemStore) Snapshot() map[idwrap.IDWrap]movable.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[idwrap.IDWrap]movable.Item, len(s.rows))
	for k, v := range s.rows {
		out[k] = v
	}
	return out
}

func (s *MemStore) WithTx(ctx context.Context, fn func(ctx context.Context, repo *MemRepo) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := &MemRepo{rows: make(map[idwrap.IDWrap]movable.Item, len(s.rows)), failAfter: s.FailAfter}
	for k, v := range s.rows {
		repo.rows[k] = v
	}
	if err := fn(ctx, repo); err != nil {
		if repo.fired {
			s.FailAfter = 0
		}
		return err
	}
	s.rows = repo.rows
	return nil
}

// MemRepo is the transaction-scoped view handed to engine operations.
type MemRepo struct {
	rows      map[idwrap.IDWrap]movable.Item
	failAfter int
	writes    int
	fired     bool
}

var _ movable.Repository = (*MemRepo)(nil)

func (r *MemRepo) GetItem(_ context.Context, id idwrap.IDWrap) (movable.Item, error) {
	it, ok := r.rows[id]
	if !ok {
		return movable.Item{}, fmt.Errorf("%w: %s", movable.ErrItemNotFound, id)
	}
	return it, nil
}

func (r *MemRepo) ListPartition(_ context.Context, partition *idwrap.IDWrap) ([]movable.Item, error) {
	return listPartition(r.rows, partition), nil
}

func (r *MemRepo) UpdateRanks(_ context.Context, updates []movable.RankUpdate) error {
	for _, u := range updates {
		r.writes++
		if r.failAfter > 0 && r.writes >= r.failAfter {
			r.fired = true
			return ErrInjected
		}
		it, ok := r.rows[u.ID]
		if !ok {
			return fmt.Errorf("%w: %s", movable.ErrItemNotFound, u.ID)
		}
		it.Order = u.To
		r.rows[u.ID] = it
	}
	return nil
}

func (r *MemRepo) Delete(_ context.Context, id idwrap.IDWrap) error {
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("%w: %s", movable.ErrItemNotFound, id)
	}
	delete(r.rows, id)
	return nil
}

// Insert is the InsertFn target used by tests exercising Append.
func (r *MemRepo) Insert(id idwrap.IDWrap, partition *idwrap.IDWrap, order int) {
	r.rows[id] = movable.Item{ID: id, Partition: partition, Order: order}
}

func listPartition(rows map[idwrap.IDWrap]movable.Item, partition *idwrap.IDWrap) []movable.Item {
	out := make([]movable.Item, 0)
	for _, it := range rows {
		if idwrap.Equal(it.Partition, partition) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b movable.Item) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return a.ID.Compare(b.ID)
	})
	return out
}

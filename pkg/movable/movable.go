// Package movable keeps sibling rows in a dense, zero-based rank order and
// moves them around without ever leaving a gap or a duplicate behind.
//
// Ranks live in a partition: the set of rows sharing a parent id, or every row
// of the table when the model is unpartitioned. Inside a partition the ranks
// are always exactly 0..n-1.
package movable

import (
	"context"
	"fmt"
	"strings"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
)

// Item is the ordering view of a persisted row.
type Item struct {
	ID idwrap.IDWrap
	// Partition is nil for the global partition.
	Partition *idwrap.IDWrap
	Order     int
}

// RankUpdate rewrites the rank of one row.
type RankUpdate struct {
	ID   idwrap.IDWrap
	From int
	To   int
}

// MoveResult describes what a move did. Updates is empty for a no-op.
type MoveResult struct {
	ID      idwrap.IDWrap
	From    int
	To      int
	Updates []RankUpdate
}

// Changed reports whether the move touched any row.
func (r MoveResult) Changed() bool {
	return len(r.Updates) > 0
}

// Direction is a single step used by the admin controls.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
	}
}

// MovePosition places a row relative to a target sibling.
type MovePosition int

const (
	MovePositionUnspecified MovePosition = iota
	MovePositionAbove
	MovePositionBelow
)

func (p MovePosition) String() string {
	switch p {
	case MovePositionAbove:
		return "above"
	case MovePositionBelow:
		return "below"
	default:
		return "unspecified"
	}
}

// Repository is the storage contract. Every implementation is expected to be
// bound to a single transaction for the lifetime of one engine operation.
type Repository interface {
	// GetItem returns ErrItemNotFound (wrapped) when the row does not exist.
	GetItem(ctx context.Context, id idwrap.IDWrap) (Item, error)
	// ListPartition returns the siblings ordered by rank, then id.
	ListPartition(ctx context.Context, partition *idwrap.IDWrap) ([]Item, error)
	UpdateRanks(ctx context.Context, updates []RankUpdate) error
	Delete(ctx context.Context, id idwrap.IDWrap) error
}

// Store opens the transaction scope a whole engine operation runs in. fn's
// writes commit together when it returns nil and are discarded otherwise.
type Store[R Repository] interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo R) error) error
}

package movable

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
)

// Manager runs the reorder operations. Each public method is one transaction:
// it reads the partition, plans, and writes every affected rank before
// committing, so a failed write leaves the previous ranks in place.
type Manager[R Repository] struct {
	store  Store[R]
	logger *slog.Logger
}

func NewManager[R Repository](store Store[R], logger *slog.Logger) *Manager[R] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager[R]{store: store, logger: logger}
}

// InsertFn writes a new row with the rank chosen by Append.
type InsertFn[R Repository] func(ctx context.Context, repo R, order int) error

func (m *Manager[R]) MoveUp(ctx context.Context, id idwrap.IDWrap) (MoveResult, error) {
	return m.Move(ctx, id, DirectionUp)
}

func (m *Manager[R]) MoveDown(ctx context.Context, id idwrap.IDWrap) (MoveResult, error) {
	return m.Move(ctx, id, DirectionDown)
}

// Move steps one slot in dir. The first row moving up and the last row moving
// down are silent no-ops.
func (m *Manager[R]) Move(ctx context.Context, id idwrap.IDWrap, dir Direction) (MoveResult, error) {
	return m.moveWith(ctx, id, nil, step(dir))
}

// MoveWithin is Move for a record addressed through its partition. The
// membership check runs in the move's transaction; a record outside
// partition is reported as ErrItemNotFound.
func (m *Manager[R]) MoveWithin(ctx context.Context, partition *idwrap.IDWrap, id idwrap.IDWrap, dir Direction) (MoveResult, error) {
	guard := func(it Item) error {
		if !idwrap.Equal(it.Partition, partition) {
			return fmt.Errorf("%w: %s is not in partition %s", ErrItemNotFound, id, partitionString(partition))
		}
		return nil
	}
	return m.moveWith(ctx, id, guard, step(dir))
}

// step picks the neighbouring slot. The ends of the sequence are no-ops.
func step(dir Direction) func(cur, n int) (int, error) {
	return func(cur, n int) (int, error) {
		switch dir {
		case DirectionUp:
			if cur == 0 {
				return cur, nil
			}
			return cur - 1, nil
		case DirectionDown:
			if cur == n-1 {
				return cur, nil
			}
			return cur + 1, nil
		default:
			return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, dir)
		}
	}
}

// MoveTo places id at target. Targets outside [0, n-1] are rejected before
// anything is written.
func (m *Manager[R]) MoveTo(ctx context.Context, id idwrap.IDWrap, target int) (MoveResult, error) {
	return m.moveWith(ctx, id, nil, func(int, int) (int, error) {
		return target, nil
	})
}

func (m *Manager[R]) MoveTop(ctx context.Context, id idwrap.IDWrap) (MoveResult, error) {
	return m.MoveTo(ctx, id, 0)
}

func (m *Manager[R]) MoveBottom(ctx context.Context, id idwrap.IDWrap) (MoveResult, error) {
	return m.moveWith(ctx, id, nil, func(_, n int) (int, error) {
		return n - 1, nil
	})
}

func (m *Manager[R]) MoveAbove(ctx context.Context, id, otherID idwrap.IDWrap) (MoveResult, error) {
	return m.MoveRelative(ctx, id, otherID, MovePositionAbove)
}

func (m *Manager[R]) MoveBelow(ctx context.Context, id, otherID idwrap.IDWrap) (MoveResult, error) {
	return m.MoveRelative(ctx, id, otherID, MovePositionBelow)
}

// MoveRelative places id directly above or below otherID. Moving a row
// relative to itself does nothing; a sibling from another partition is an
// ErrIncompatiblePartition.
func (m *Manager[R]) MoveRelative(ctx context.Context, id, otherID idwrap.IDWrap, pos MovePosition) (MoveResult, error) {
	if pos != MovePositionAbove && pos != MovePositionBelow {
		return MoveResult{}, fmt.Errorf("%w: position must be above or below", ErrInvalidArgument)
	}

	var result MoveResult
	err := m.store.WithTx(ctx, func(ctx context.Context, repo R) error {
		item, err := repo.GetItem(ctx, id)
		if err != nil {
			return err
		}
		result = MoveResult{ID: id, From: item.Order, To: item.Order}
		if id.Compare(otherID) == 0 {
			return nil
		}
		other, err := repo.GetItem(ctx, otherID)
		if err != nil {
			return err
		}
		if !idwrap.Equal(item.Partition, other.Partition) {
			return fmt.Errorf("%w: %s is not a sibling of %s", ErrIncompatiblePartition, otherID, id)
		}

		items, err := repo.ListPartition(ctx, item.Partition)
		if err != nil {
			return err
		}
		seq := sortedCopy(items)
		cur, at := indexOf(seq, id), indexOf(seq, otherID)
		if cur < 0 || at < 0 {
			return fmt.Errorf("%w: partition changed underneath move", ErrItemNotFound)
		}
		target := AboveTarget(cur, at)
		if pos == MovePositionBelow {
			target = BelowTarget(cur, at)
		}
		return m.apply(ctx, repo, &result, seq, cur, target)
	})
	if err != nil {
		return MoveResult{}, err
	}
	m.logMove(ctx, "move_"+pos.String(), result)
	return result, nil
}

// Swap exchanges the ranks of id and the single record in others.
func (m *Manager[R]) Swap(ctx context.Context, id idwrap.IDWrap, others []idwrap.IDWrap) (MoveResult, error) {
	if len(others) != 1 {
		return MoveResult{}, fmt.Errorf("%w: swap needs exactly one other record, got %d", ErrInvalidArgument, len(others))
	}
	otherID := others[0]
	if id.Compare(otherID) == 0 {
		return MoveResult{}, fmt.Errorf("%w: cannot swap a record with itself", ErrInvalidArgument)
	}

	var result MoveResult
	err := m.store.WithTx(ctx, func(ctx context.Context, repo R) error {
		item, err := repo.GetItem(ctx, id)
		if err != nil {
			return err
		}
		other, err := repo.GetItem(ctx, otherID)
		if err != nil {
			return err
		}
		if !idwrap.Equal(item.Partition, other.Partition) {
			return fmt.Errorf("%w: %w: %s is not a sibling of %s", ErrInvalidArgument, ErrIncompatiblePartition, otherID, id)
		}
		items, err := repo.ListPartition(ctx, item.Partition)
		if err != nil {
			return err
		}
		updates, err := PlanSwap(items, id, otherID)
		if err != nil {
			return err
		}
		result = MoveResult{ID: id, From: item.Order, To: other.Order, Updates: updates}
		if len(updates) == 0 {
			return nil
		}
		return repo.UpdateRanks(ctx, updates)
	})
	if err != nil {
		return MoveResult{}, err
	}
	m.logMove(ctx, "swap", result)
	return result, nil
}

// Append creates a row at the end of partition. insert receives the rank to
// store; it runs in the same transaction as the read that chose it.
func (m *Manager[R]) Append(ctx context.Context, partition *idwrap.IDWrap, insert InsertFn[R]) (int, error) {
	if insert == nil {
		return 0, fmt.Errorf("%w: insert function is nil", ErrInvalidArgument)
	}
	var order int
	err := m.store.WithTx(ctx, func(ctx context.Context, repo R) error {
		items, err := repo.ListPartition(ctx, partition)
		if err != nil {
			return err
		}
		next, repair := PlanAppend(items)
		if len(repair) > 0 {
			m.logger.WarnContext(ctx, "repairing gapped partition before append",
				"partition", partitionString(partition),
				"rows", len(repair))
			if err := repo.UpdateRanks(ctx, repair); err != nil {
				return err
			}
		}
		order = next
		return insert(ctx, repo, next)
	})
	if err != nil {
		return 0, err
	}
	return order, nil
}

// Remove deletes id and pulls every later sibling up by one.
func (m *Manager[R]) Remove(ctx context.Context, id idwrap.IDWrap) error {
	return m.store.WithTx(ctx, func(ctx context.Context, repo R) error {
		item, err := repo.GetItem(ctx, id)
		if err != nil {
			return err
		}
		items, err := repo.ListPartition(ctx, item.Partition)
		if err != nil {
			return err
		}
		updates, err := PlanRemove(items, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		m.logger.DebugContext(ctx, "removed ranked record",
			"record_id", id.String(),
			"order", item.Order,
			"shifted", len(updates))
		if len(updates) == 0 {
			return nil
		}
		return repo.UpdateRanks(ctx, updates)
	})
}

// Compact renumbers partition to 0..n-1 and returns how many rows changed.
func (m *Manager[R]) Compact(ctx context.Context, partition *idwrap.IDWrap) (int, error) {
	var changed int
	err := m.store.WithTx(ctx, func(ctx context.Context, repo R) error {
		items, err := repo.ListPartition(ctx, partition)
		if err != nil {
			return err
		}
		updates := PlanCompact(items)
		changed = len(updates)
		if changed == 0 {
			return nil
		}
		return repo.UpdateRanks(ctx, updates)
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// Verify checks the persisted partition against the density invariant.
func (m *Manager[R]) Verify(ctx context.Context, partition *idwrap.IDWrap) error {
	return m.store.WithTx(ctx, func(ctx context.Context, repo R) error {
		items, err := repo.ListPartition(ctx, partition)
		if err != nil {
			return err
		}
		return CheckDensity(items)
	})
}

// moveWith resolves the record and its partition, lets pick choose the target
// slot from (current, n), and writes the plan. A non-nil guard vets the record
// before anything is read from its partition.
func (m *Manager[R]) moveWith(ctx context.Context, id idwrap.IDWrap, guard func(Item) error, pick func(cur, n int) (int, error)) (MoveResult, error) {
	var result MoveResult
	err := m.store.WithTx(ctx, func(ctx context.Context, repo R) error {
		item, err := repo.GetItem(ctx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(item); err != nil {
				return err
			}
		}
		items, err := repo.ListPartition(ctx, item.Partition)
		if err != nil {
			return err
		}
		seq := sortedCopy(items)
		cur := indexOf(seq, id)
		if cur < 0 {
			return fmt.Errorf("%w: %s missing from its partition", ErrItemNotFound, id)
		}
		target, err := pick(cur, len(seq))
		if err != nil {
			return err
		}
		result = MoveResult{ID: id, From: item.Order, To: item.Order}
		return m.apply(ctx, repo, &result, seq, cur, target)
	})
	if err != nil {
		return MoveResult{}, err
	}
	m.logMove(ctx, "move", result)
	return result, nil
}

func (m *Manager[R]) apply(ctx context.Context, repo R, result *MoveResult, seq []Item, cur, target int) error {
	updates, err := PlanMoveTo(seq, seq[cur].ID, target)
	if err != nil {
		return err
	}
	result.To = target
	result.Updates = updates
	if len(updates) == 0 {
		return nil
	}
	return repo.UpdateRanks(ctx, updates)
}

func (m *Manager[R]) logMove(ctx context.Context, op string, r MoveResult) {
	if !r.Changed() {
		return
	}
	m.logger.DebugContext(ctx, "ranked record moved",
		"op", op,
		"record_id", r.ID.String(),
		"from", r.From,
		"to", r.To,
		"affected", len(r.Updates))
}

func partitionString(p *idwrap.IDWrap) string {
	if p == nil {
		return "<global>"
	}
	return p.String()
}

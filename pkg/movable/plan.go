package movable

import (
	"fmt"
	"slices"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
)

// The planners below are pure. They take a partition snapshot, decide the new
// sequence and return one RankUpdate per row whose rank has to change. Rows
// are renumbered by their slot in the new sequence, so a partition that was
// already dense only gets updates for the shifted range.

func sortedCopy(items []Item) []Item {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b Item) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return a.ID.Compare(b.ID)
	})
	return out
}

func indexOf(items []Item, id idwrap.IDWrap) int {
	return slices.IndexFunc(items, func(it Item) bool {
		return it.ID.Compare(id) == 0
	})
}

// renumber diffs the sequence against its slot numbers.
func renumber(seq []Item) []RankUpdate {
	updates := make([]RankUpdate, 0)
	for i, it := range seq {
		if it.Order != i {
			updates = append(updates, RankUpdate{ID: it.ID, From: it.Order, To: i})
		}
	}
	return updates
}

// PlanMoveTo moves id to slot target. Moving forward pulls (current, target]
// down by one; moving backward pushes [target, current) up by one.
func PlanMoveTo(items []Item, id idwrap.IDWrap, target int) ([]RankUpdate, error) {
	seq := sortedCopy(items)
	cur := indexOf(seq, id)
	if cur < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if target < 0 || target >= len(seq) {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrPositionOutOfRange, target, len(seq)-1)
	}
	if cur != target {
		moving := seq[cur]
		seq = slices.Delete(seq, cur, cur+1)
		seq = slices.Insert(seq, target, moving)
	}
	return renumber(seq), nil
}

// PlanSwap exchanges the slots of a and b.
func PlanSwap(items []Item, a, b idwrap.IDWrap) ([]RankUpdate, error) {
	seq := sortedCopy(items)
	ia, ib := indexOf(seq, a), indexOf(seq, b)
	if ia < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, a)
	}
	if ib < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, b)
	}
	seq[ia], seq[ib] = seq[ib], seq[ia]
	return renumber(seq), nil
}

// PlanRemove closes the gap id leaves behind.
func PlanRemove(items []Item, id idwrap.IDWrap) ([]RankUpdate, error) {
	seq := sortedCopy(items)
	cur := indexOf(seq, id)
	if cur < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	seq = slices.Delete(seq, cur, cur+1)
	return renumber(seq), nil
}

// PlanAppend returns the rank a new row takes at the end of the partition,
// together with any repair the existing rows need to make that rank valid.
func PlanAppend(items []Item) (int, []RankUpdate) {
	seq := sortedCopy(items)
	return len(seq), renumber(seq)
}

// PlanCompact rewrites a partition to 0..n-1 keeping the relative order.
func PlanCompact(items []Item) []RankUpdate {
	return renumber(sortedCopy(items))
}

// AboveTarget is the slot that puts a row at cur directly above the row at other.
func AboveTarget(cur, other int) int {
	if cur > other {
		return other
	}
	return other - 1
}

// BelowTarget is the slot that puts a row at cur directly below the row at other.
func BelowTarget(cur, other int) int {
	if cur > other {
		return other + 1
	}
	return other
}

// CheckDensity validates that the partition ranks are exactly 0..n-1.
func CheckDensity(items []Item) error {
	seen := make(map[int]idwrap.IDWrap, len(items))
	for _, it := range items {
		if it.Order < 0 || it.Order >= len(items) {
			return fmt.Errorf("%w: %s has rank %d with %d rows", ErrDensityViolation, it.ID, it.Order, len(items))
		}
		if prev, ok := seen[it.Order]; ok {
			return fmt.Errorf("%w: %s and %s share rank %d", ErrDensityViolation, prev, it.ID, it.Order)
		}
		seen[it.Order] = it.ID
	}
	return nil
}

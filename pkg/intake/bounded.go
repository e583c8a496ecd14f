package intake

import (
	"errors"
	"slices"
)

var (
	// ErrListFull is returned when a bounded list is at capacity.
	ErrListFull = errors.New("intake: list is full")

	// ErrDuplicate is returned when a value is already present.
	ErrDuplicate = errors.New("intake: duplicate value")
)

// BoundedList is an ordered, deduplicated list with a maximum length.
type BoundedList struct {
	items []string
	max   int
}

// NewBoundedList creates a list capped at max holding a copy of items.
func NewBoundedList(max int, items ...string) *BoundedList {
	return &BoundedList{items: slices.Clone(items), max: max}
}

// Add appends v. It fails when the list is full or already holds v.
func (l *BoundedList) Add(v string) error {
	if len(l.items) >= l.max {
		return ErrListFull
	}
	if slices.Contains(l.items, v) {
		return ErrDuplicate
	}
	l.items = append(l.items, v)
	return nil
}

// Remove drops the item at i keeping order. Out-of-range is a no-op.
func (l *BoundedList) Remove(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	l.items = slices.Delete(l.items, i, i+1)
}

// Len returns the number of items.
func (l *BoundedList) Len() int { return len(l.items) }

// Max returns the capacity.
func (l *BoundedList) Max() int { return l.max }

// Full reports whether the list is at capacity.
func (l *BoundedList) Full() bool { return len(l.items) >= l.max }

// Values returns a copy of the items.
func (l *BoundedList) Values() []string {
	return slices.Clone(l.items)
}

package state

import (
	"fmt"
)

// initialSlots is the capacity of a new store.  Slot 0 always exists, and a
// session that evaluates anything will need slot 1 soon after.
const initialSlots = 2

// Store is the indexed array of per-submission top-level state.  Slot i is
// written by the code of submission i and read by later submissions.  The
// Store is passed by pointer into every invocation, so growth never
// invalidates an index already chosen by a compiled unit.
type Store struct {
	slots []any
}

// New constructs a Store with the initial slots pre-allocated.
func New() *Store {
	return &Store{slots: make([]any, initialSlots)}
}

// Len returns the number of allocated slots.
func (s *Store) Len() int {
	return len(s.slots)
}

// Ensure grows the store so that it holds at least n slots.  Growth doubles
// the current size, or jumps straight to n when doubling is not enough.
// Existing slots are preserved; the store never shrinks.
func (s *Store) Ensure(n int) {
	if n <= len(s.slots) {
		return
	}
	size := len(s.slots) * 2
	if size < n {
		size = n
	}
	slots := make([]any, size)
	copy(slots, s.slots)
	s.slots = slots
}

// Get returns the value held in slot i, or nil if the slot is unset or out
// of range.
func (s *Store) Get(i int) any {
	if i < 0 || i >= len(s.slots) {
		return nil
	}
	return s.slots[i]
}

// Set writes slot i.  The slot must have been allocated with Ensure.
func (s *Store) Set(i int, value any) error {
	if i < 0 || i >= len(s.slots) {
		return fmt.Errorf("state slot %d out of range (len=%d)", i, len(s.slots))
	}
	s.slots[i] = value
	return nil
}

// Snapshot returns a copy of the slots.  Mutating the returned slice does not
// affect the store.
func (s *Store) Snapshot() []any {
	slots := make([]any, len(s.slots))
	copy(slots, s.slots)
	return slots
}

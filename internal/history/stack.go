package history

import "errors"

// DefaultLimit is the number of snapshots kept when no limit is given.
const DefaultLimit = 50

// ErrNothingToUndo is returned by Pop on an empty stack.
var ErrNothingToUndo = errors.New("nothing to undo")

// Stack is a bounded LIFO of snapshots. When full, pushing discards the
// oldest entry. It is not safe for concurrent use; the owner serializes
// access.
type Stack[T any] struct {
	entries []T
	limit   int
}

// NewStack returns a stack holding at most limit entries.
func NewStack[T any](limit int) *Stack[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stack[T]{limit: limit}
}

// Push adds v on top, trimming the oldest entries past the limit.
func (s *Stack[T]) Push(v T) {
	s.entries = append(s.entries, v)
	if excess := len(s.entries) - s.limit; excess > 0 {
		var zero T
		for i := 0; i < excess; i++ {
			s.entries[i] = zero
		}
		s.entries = s.entries[excess:]
	}
}

// Pop removes and returns the most recent entry.
func (s *Stack[T]) Pop() (T, error) {
	var zero T
	if len(s.entries) == 0 {
		return zero, ErrNothingToUndo
	}
	v := s.entries[len(s.entries)-1]
	s.entries[len(s.entries)-1] = zero
	s.entries = s.entries[:len(s.entries)-1]
	return v, nil
}

// Len returns the number of entries.
func (s *Stack[T]) Len() int {
	return len(s.entries)
}

// Limit returns the capacity.
func (s *Stack[T]) Limit() int {
	return s.limit
}

// Clear drops every entry.
func (s *Stack[T]) Clear() {
	s.entries = nil
}

// Package history provides a generic undo/redo container over snapshot
// values. It has no knowledge of what the snapshots hold.
package history

import (
	"sync"

	"cvarchitect/internal/util/jsonutil"
)

// DefaultLimit bounds the past stack; the oldest snapshot is evicted
// once the cap is exceeded.
const DefaultLimit = 30

// Store keeps an ordered past stack, the current snapshot, and a future
// stack for redo. A fresh Set invalidates the future stack.
type Store[T any] struct {
	mu      sync.Mutex
	past    []T
	present T
	future  []T
	limit   int
	equal   func(a, b T) bool
}

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithLimit overrides the past stack cap.
func WithLimit[T any](n int) Option[T] {
	return func(s *Store[T]) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithEqual overrides the structural equality used to suppress
// duplicate Set calls. The default compares JSON forms.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(s *Store[T]) {
		if eq != nil {
			s.equal = eq
		}
	}
}

// New creates a Store seeded with an initial snapshot.
func New[T any](initial T, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		present: initial,
		limit:   DefaultLimit,
		equal:   func(a, b T) bool { return jsonutil.Equal(a, b) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the present snapshot.
func (s *Store[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.present
}

// Set records next as the present snapshot. Setting a value
// structurally equal to the present one is a no-op, so no-op merges do
// not pollute the undo history. Any redo history is discarded.
func (s *Store[T]) Set(next T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.equal(next, s.present) {
		return
	}
	s.past = append(s.past, s.present)
	if len(s.past) > s.limit {
		s.past = s.past[len(s.past)-s.limit:]
	}
	s.present = next
	s.future = nil
}

// Undo moves the most recent past snapshot into the present and reports
// whether anything changed.
func (s *Store[T]) Undo() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.past) == 0 {
		return s.present, false
	}
	s.future = append([]T{s.present}, s.future...)
	s.present = s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	return s.present, true
}

// Redo moves the earliest future snapshot back into the present.
func (s *Store[T]) Redo() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.future) == 0 {
		return s.present, false
	}
	s.past = append(s.past, s.present)
	s.present = s.future[0]
	s.future = s.future[1:]
	return s.present, true
}

// CanUndo reports whether the past stack is non-empty.
func (s *Store[T]) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.past) > 0
}

// CanRedo reports whether the future stack is non-empty.
func (s *Store[T]) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.future) > 0
}

// Depth returns the past stack length.
func (s *Store[T]) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.past)
}

// Reset drops all history and replaces the present snapshot.
func (s *Store[T]) Reset(initial T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.past = nil
	s.future = nil
	s.present = initial
}

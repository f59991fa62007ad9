package optimistic

import (
	"context"
	"sync"
)

// Store holds a value that can be mutated locally ahead of a remote
// write. Update applies immediately; Commit settles against the remote
// result or rolls back. Each update bumps a sequence number, and a
// commit that settles after a newer update has been applied is
// discarded rather than clobbering the newer value.
type Store[T any] struct {
	mu         sync.Mutex
	data       T
	optimistic bool
	seq        uint64
}

func New[T any](initial T) *Store[T] {
	return &Store[T]{data: initial}
}

// Get returns the current value and whether it is optimistic.
func (s *Store[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.optimistic
}

// Update applies reducer to the current value synchronously and marks
// the state optimistic. It returns a commit token bound to this
// update's sequence.
func (s *Store[T]) Update(reducer func(T) T) Token[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data
	s.data = reducer(prev)
	s.optimistic = true
	s.seq++
	return Token[T]{store: s, seq: s.seq, prev: prev}
}

// Token ties a Commit to the Update that produced it.
type Token[T any] struct {
	store *Store[T]
	seq   uint64
	prev  T
}

// Commit runs the remote write. On success the result becomes the
// authoritative value; on failure the store is restored to fallback
// evaluated against the pre-update value, and the zero value plus
// ok=false signal the failure to the caller. Either way the optimistic
// flag clears. A commit whose update has since been superseded is
// discarded entirely.
func (t Token[T]) Commit(ctx context.Context, write func(ctx context.Context) (T, error), fallback func(prev T) T) (T, bool) {
	result, err := write(ctx)

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.seq != t.store.seq {
		// A newer update owns the state now; this settlement is stale.
		var zero T
		return zero, err == nil
	}

	t.store.optimistic = false
	if err != nil {
		t.store.data = fallback(t.prev)
		var zero T
		return zero, false
	}
	t.store.data = result
	return result, true
}

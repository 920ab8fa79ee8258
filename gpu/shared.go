package gpu

import (
	"context"
	"sync"
)

// Shared is a lazily initialized value shared by every caller in the
// process. The first Get starts init; concurrent and later callers wait for
// the same result. A failed initialization is kept and returned to everyone.
type Shared[T any] struct {
	init func(context.Context) (T, error)

	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewShared returns a Shared that will be produced by init.
func NewShared[T any](init func(context.Context) (T, error)) *Shared[T] {
	return &Shared[T]{init: init, done: make(chan struct{})}
}

// Get returns the shared value, starting initialization on first use. ctx
// only bounds the wait; initialization itself is never cancelled.
func (s *Shared[T]) Get(ctx context.Context) (T, error) {
	s.once.Do(func() {
		go func() {
			defer close(s.done)
			s.value, s.err = s.init(context.Background())
		}()
	})
	select {
	case <-s.done:
		return s.value, s.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Resolved reports whether initialization has finished.
func (s *Shared[T]) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

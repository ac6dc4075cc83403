// Package gate provides the single exclusive-access section that serializes
// every mutation and lookup of a ring log.
package gate

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// ErrInterrupted is returned when the caller's context ends while waiting
// for the gate. The wrapped error is the context's error.
var ErrInterrupted = errors.New("gate: interrupted while waiting")

// Gate is an interruptible mutex. Waiting honours context cancellation;
// once acquired, the holder runs to completion.
type Gate struct {
	sem *semaphore.Weighted
}

// New returns an unlocked gate.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Lock blocks until the gate is acquired or ctx is done. A cancelled
// caller never holds the gate.
func (g *Gate) Lock(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return nil
}

// TryLock acquires the gate without blocking and reports success.
func (g *Gate) TryLock() bool { return g.sem.TryAcquire(1) }

// Unlock releases the gate. Unlocking an unlocked gate panics.
func (g *Gate) Unlock() { g.sem.Release(1) }

// Do runs fn while holding the gate.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.Lock(ctx); err != nil {
		return err
	}
	defer g.Unlock()
	return fn()
}

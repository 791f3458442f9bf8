package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotAcquired = errors.New("slot lock not acquired")

// Locker guards the booking critical section for a single slot.
type Locker interface {
	WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error
}

type slotEntry struct {
	sem  chan struct{}
	refs int
}

// Local is an in-process Locker. Waiters queue on the slot for up to wait
// before giving up with ErrNotAcquired.
type Local struct {
	wait time.Duration

	mu    sync.Mutex
	slots map[uuid.UUID]*slotEntry
}

func NewLocal(wait time.Duration) *Local {
	return &Local{
		wait:  wait,
		slots: make(map[uuid.UUID]*slotEntry),
	}
}

func (l *Local) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	e := l.acquireEntry(slotID)
	defer l.releaseEntry(slotID, e)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrNotAcquired
	}
	defer func() { <-e.sem }()

	return fn(ctx)
}

func (l *Local) acquireEntry(slotID uuid.UUID) *slotEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.slots[slotID]
	if !ok {
		e = &slotEntry{sem: make(chan struct{}, 1)}
		l.slots[slotID] = e
	}
	e.refs++
	return e
}

func (l *Local) releaseEntry(slotID uuid.UUID, e *slotEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.slots, slotID)
	}
}

// Nop runs fn without any locking; the repository transaction alone
// decides the winner.
type Nop struct{}

func (Nop) WithSlotLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

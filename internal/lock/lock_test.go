package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SerializesSameSlot(t *testing.T) {
	l := NewLocal(time.Second)
	slotID := uuid.New()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.slots)
}

func TestLocal_TimesOut(t *testing.T) {
	l := NewLocal(10 * time.Millisecond)
	slotID := uuid.New()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = l.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := l.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
		t.Fatal("should not run")
		return nil
	})
	close(done)

	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestLocal_DifferentSlotsDoNotBlock(t *testing.T) {
	l := NewLocal(10 * time.Millisecond)

	err := l.WithSlotLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		return l.WithSlotLock(ctx, uuid.New(), func(ctx context.Context) error { return nil })
	})
	require.NoError(t, err)
}

func TestLocal_ContextCancelled(t *testing.T) {
	l := NewLocal(time.Second)
	slotID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	err := l.WithSlotLock(context.Background(), slotID, func(context.Context) error {
		cancel()
		return l.WithSlotLock(ctx, slotID, func(context.Context) error { return nil })
	})

	assert.ErrorIs(t, err, context.Canceled)
}

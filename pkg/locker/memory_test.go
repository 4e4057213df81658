package locker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/pkg/locker"
)

func TestMemoryLocker_SerialisesSameKey(t *testing.T) {
	t.Parallel()

	l := locker.NewMemoryLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), l, "company-1", func(context.Context) error {
				mu.Lock()
				active++
				maxSeen = max(maxSeen, active)
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestMemoryLocker_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	l := locker.NewMemoryLocker()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer func() { _ = unlockA(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, unlockB(context.Background()))
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	t.Parallel()

	l := locker.NewMemoryLocker()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	require.ErrorIs(t, err, locker.ErrLockFailed)

	require.NoError(t, unlock(context.Background()))
	unlock2, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	require.NoError(t, unlock2(context.Background()))
}

func TestWithLock_PropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := locker.WithLock(context.Background(), locker.NewMemoryLocker(), "k", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
}

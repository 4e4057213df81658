package locker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtender struct {
	calls atomic.Int32
	ok    bool
	err   error
}

func (f *fakeExtender) ExtendContext(context.Context) (bool, error) {
	f.calls.Add(1)
	return f.ok, f.err
}

func TestKeepAlive(t *testing.T) {
	t.Parallel()

	t.Run("extends while held", func(t *testing.T) {
		t.Parallel()
		m := &fakeExtender{ok: true}
		stop := keepAlive(m, 5*time.Millisecond, func(err error) {
			t.Errorf("unexpected lock loss: %v", err)
		})

		require.Eventually(t, func() bool { return m.calls.Load() >= 3 }, time.Second, time.Millisecond)
		stop()
		stop()

		after := m.calls.Load()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, after, m.calls.Load())
	})

	t.Run("reports lost lock", func(t *testing.T) {
		t.Parallel()
		m := &fakeExtender{ok: false}
		lost := make(chan error, 1)
		stop := keepAlive(m, 5*time.Millisecond, func(err error) { lost <- err })
		defer stop()

		select {
		case err := <-lost:
			assert.ErrorIs(t, err, ErrLockLost)
		case <-time.After(time.Second):
			t.Fatal("lock loss not reported")
		}
		assert.Equal(t, int32(1), m.calls.Load())
	})

	t.Run("reports extend error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("redis down")
		m := &fakeExtender{err: boom}
		lost := make(chan error, 1)
		stop := keepAlive(m, 5*time.Millisecond, func(err error) { lost <- err })
		defer stop()

		select {
		case err := <-lost:
			assert.ErrorIs(t, err, boom)
		case <-time.After(time.Second):
			t.Fatal("lock loss not reported")
		}
	})
}

func TestNewRedisLocker_Options(t *testing.T) {
	t.Parallel()

	l := NewRedisLocker(nil, WithExpiry(30*time.Second), WithTries(0), WithPrefix("t:"), WithLogger(nil))
	assert.Equal(t, 30*time.Second, l.expiry)
	assert.Equal(t, 32, l.tries)
	assert.Equal(t, "t:", l.prefix)
	assert.NotNil(t, l.log)
}

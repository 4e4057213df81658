// Package locker serialises work per key, either inside one process or
// across replicas through Redis.
package locker

import (
	"context"
	"errors"
)

var (
	ErrLockFailed   = errors.New("locker: failed to acquire lock")
	ErrUnlockFailed = errors.New("locker: failed to release lock")
	ErrLockLost     = errors.New("locker: lock expired while held")
)

// UnlockFunc releases a held lock.
type UnlockFunc func(ctx context.Context) error

// Locker acquires an exclusive lock for key. The caller must call the
// returned UnlockFunc exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}

// WithLock runs fn while holding the lock for key. An unlock failure is
// joined with fn's error.
func WithLock(ctx context.Context, l Locker, key string, fn func(ctx context.Context) error) (err error) {
	unlock, err := l.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
			err = errors.Join(err, uerr)
		}
	}()
	return fn(ctx)
}

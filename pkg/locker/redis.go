package locker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisLocker is a Locker backed by redsync, shared by all replicas that
// use the same Redis. A held lock is extended every expiry/3 until it is
// released, so expiry only bounds how long a crashed holder blocks others.
type RedisLocker struct {
	rs     *redsync.Redsync
	prefix string
	expiry time.Duration
	tries  int
	log    *slog.Logger
}

// RedisOption configures RedisLocker.
type RedisOption func(*RedisLocker)

// WithExpiry sets how long a lock outlives a holder that stopped extending it.
func WithExpiry(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.expiry = d
		}
	}
}

// WithTries sets how many acquisition attempts are made.
func WithTries(n int) RedisOption {
	return func(l *RedisLocker) {
		if n > 0 {
			l.tries = n
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(p string) RedisOption {
	return func(l *RedisLocker) { l.prefix = p }
}

// WithLogger sets the logger used to report a lock lost while held.
func WithLogger(log *slog.Logger) RedisOption {
	return func(l *RedisLocker) {
		if log != nil {
			l.log = log
		}
	}
}

// NewRedisLocker creates a RedisLocker on top of client.
func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		prefix: "upvote:lock:",
		expiry: 10 * time.Second,
		tries:  32,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	m := l.rs.NewMutex(l.prefix+key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
	)
	if err := m.LockContext(ctx); err != nil {
		return nil, errors.Join(ErrLockFailed, err)
	}

	stop := keepAlive(m, l.expiry/3, func(err error) {
		l.log.Error("lock lost while held", slog.String("key", key), slog.Any("error", err))
	})
	return func(ctx context.Context) error {
		stop()
		if ok, err := m.UnlockContext(ctx); err != nil || !ok {
			return errors.Join(ErrUnlockFailed, err)
		}
		return nil
	}, nil
}

type extender interface {
	ExtendContext(ctx context.Context) (bool, error)
}

// keepAlive extends m every interval until stop is called or an extension
// fails. stop waits for the extending goroutine and is safe to call twice.
func keepAlive(m extender, interval time.Duration, onLost func(error)) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				ok, err := m.ExtendContext(ctx)
				cancel()
				if err == nil && !ok {
					err = ErrLockLost
				}
				if err != nil {
					onLost(err)
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

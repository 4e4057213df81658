package ratelimiter

import (
	"context"
	"time"
)

// Store is a rate limit storage backend. A negative remaining value means
// the request must be denied.
type Store interface {
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

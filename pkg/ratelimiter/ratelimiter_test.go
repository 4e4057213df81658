package ratelimiter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/pkg/clientip"
	"github.com/dmitrymomot/upvote/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestBucket_MemoryStore(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0), ratelimiter.WithClock(clk.Now))
	defer store.Close()

	b, err := ratelimiter.NewBucket(store, ratelimiter.PerMinute(3))
	require.NoError(t, err)
	ctx := context.Background()

	for i := range 3 {
		res, err := b.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, res.Allowed(), "request %d", i)
	}
	res, err := b.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	// denials do not push the refill further away
	res, err = b.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.Equal(t, -1, res.Remaining)

	other, err := b.Allow(ctx, "other-ip")
	require.NoError(t, err)
	assert.True(t, other.Allowed())

	clk.Advance(time.Minute)
	res, err = b.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 2, res.Remaining)
}

func TestNewBucket_InvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0)), ratelimiter.Config{})
	require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	defer store.Close()
	b, err := ratelimiter.NewBucket(store, ratelimiter.PerMinute(1))
	require.NoError(t, err)

	mw := ratelimiter.Middleware(b,
		ratelimiter.Composite(ratelimiter.ClientIP, ratelimiter.RoutePath),
		ratelimiter.WithSkip(func(r *http.Request) bool { return r.Method == http.MethodOptions }),
		ratelimiter.WithRejectHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
		})),
	)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	req := func(method string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, "/api/widget/vote", nil)
		r.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, req(http.MethodPost).Code)
	rejected := req(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, rejected.Body.String())
	assert.Equal(t, "0", rejected.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, req(http.MethodOptions).Code)
}

func TestComposite(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.RemoteAddr = "192.168.1.1:1234"
	assert.Equal(t, "192.168.1.1:GET /x", ratelimiter.Composite(ratelimiter.ClientIP, ratelimiter.RoutePath)(r))

	proxied := r.WithContext(clientip.WithIP(r.Context(), "203.0.113.9"))
	assert.Equal(t, "203.0.113.9", ratelimiter.ClientIP(proxied))

	long := httptest.NewRequest(http.MethodGet, "/"+strings.Repeat("a", 100), nil)
	key := ratelimiter.Composite(ratelimiter.RoutePath)(long)
	assert.LessOrEqual(t, len(key), 64)
}

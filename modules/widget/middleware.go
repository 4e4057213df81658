package widget

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/metrics"
	"github.com/dmitrymomot/upvote/pkg/ratelimiter"
)

// CORS opens the widget API to any embedding origin and answers preflight
// requests with 204.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits widget writes per client IP and endpoint. Reads and
// preflight requests are not counted. Store failures let the request through.
func RateLimit(limiter ratelimiter.RateLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	reject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.RateLimitRejectionsTotal.Inc()
		_ = handler.JSONError(http.StatusTooManyRequests, handler.ErrTooManyRequests.Message).Render(w, r)
	})

	return ratelimiter.Middleware(limiter,
		ratelimiter.Composite(ratelimiter.ClientIP, ratelimiter.RoutePath),
		ratelimiter.WithRejectHandler(reject),
		ratelimiter.WithSkip(func(r *http.Request) bool {
			return r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions
		}),
		ratelimiter.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.WarnContext(r.Context(), "rate limiter unavailable",
				logger.Error(err),
				logger.Component("widget"),
			)
		}),
	)
}

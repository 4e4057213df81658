// Package metrics declares the Prometheus collectors of the service and the
// HTTP middleware that feeds them.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var HTTPRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "upvote_http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"route", "method", "status"},
)

var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "upvote_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"route", "method"},
)

var RateLimitRejectionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "upvote_rate_limit_rejections_total",
		Help: "Widget requests rejected by the rate limiter",
	},
)

var LimitRejectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "upvote_plan_limit_rejections_total",
		Help: "Resource creations rejected by plan limits",
	},
	[]string{"limit_type", "plan"},
)

var FeedbackCreatedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "upvote_feedback_created_total",
		Help: "Feedback items submitted through the widget",
	},
)

var VotesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "upvote_votes_total",
		Help: "Vote upserts and removals",
	},
	[]string{"action"},
)

var ExternalAPIDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "upvote_external_api_duration_seconds",
		Help:    "Duration of calls to billing and email providers",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "operation", "outcome"},
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			RateLimitRejectionsTotal,
			LimitRejectionsTotal,
			FeedbackCreatedTotal,
			VotesTotal,
			ExternalAPIDuration,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveExternal records the duration of a provider call.
func ObserveExternal(provider, operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ExternalAPIDuration.WithLabelValues(provider, operation, outcome).Observe(time.Since(start).Seconds())
}

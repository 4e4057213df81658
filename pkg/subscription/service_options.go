package subscription

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithCounter registers a counter function for a specific resource.
// Panics if a counter for the same resource has already been registered
// to prevent accidental overwrites and ensure explicit configuration.
func WithCounter(resource Resource, fn ResourceCounterFunc) ServiceOption {
	return func(s *service) {
		if fn == nil {
			return
		}
		if _, exists := s.counters[resource]; exists {
			panic("subscription: counter for resource " + string(resource) + " already registered")
		}
		s.counters[resource] = fn
	}
}

// WithProvider sets the billing provider used for checkouts and the customer portal.
func WithProvider(p BillingProvider) ServiceOption {
	return func(s *service) {
		s.provider = p
	}
}

// WithProductCatalog sets the mapping used to resolve provider products into plans.
func WithProductCatalog(c ProductCatalog) ServiceOption {
	return func(s *service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

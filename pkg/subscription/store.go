package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists subscriptions and usage counters.
// CompanyID is the natural key of a subscription, (CompanyID, PeriodStart) of a usage row.
type Store interface {
	// GetSubscription returns ErrSubscriptionNotFound if the company has none.
	GetSubscription(ctx context.Context, companyID uuid.UUID) (*Subscription, error)

	// CreateSubscription inserts sub unless the company already has one.
	// Either way it returns the stored row, so concurrent callers converge on a single subscription.
	CreateSubscription(ctx context.Context, sub *Subscription) (*Subscription, error)

	// SaveSubscription creates or updates a subscription keyed by CompanyID.
	SaveSubscription(ctx context.Context, sub *Subscription) error

	// GetUsage returns ErrUsageNotFound if no row exists for the period.
	GetUsage(ctx context.Context, companyID uuid.UUID, periodStart time.Time) (*UsageMetrics, error)

	// EnsureUsage inserts u unless a row exists for (CompanyID, PeriodStart) and returns the stored row.
	EnsureUsage(ctx context.Context, u *UsageMetrics) (*UsageMetrics, error)

	// CreateUsage inserts u and returns ErrUsagePeriodExists on conflict.
	CreateUsage(ctx context.Context, u *UsageMetrics) error

	// IncrementUsage atomically adds delta to the counter of res.
	// Returns ErrUsageNotFound if the row does not exist.
	IncrementUsage(ctx context.Context, companyID uuid.UUID, periodStart time.Time, res Resource, delta int64) error
}

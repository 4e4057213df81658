package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/pg"
	"github.com/dmitrymomot/upvote/pkg/subscription"
)

const subscriptionColumns = `id, company_id, plan, status, provider_customer_id, provider_subscription_id,
	provider_product_id, current_period_start, current_period_end, trial_end, cancel_at_period_end,
	created_at, updated_at`

const usageColumns = `id, company_id, period_start, period_end, project_count, feedback_count, created_at, updated_at`

// SubscriptionStore is the PostgreSQL subscription.Store.
type SubscriptionStore struct {
	db DB
}

// NewSubscriptionStore returns a SubscriptionStore backed by db.
func NewSubscriptionStore(db DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

var _ subscription.Store = (*SubscriptionStore)(nil)

func (s *SubscriptionStore) GetSubscription(ctx context.Context, companyID uuid.UUID) (*subscription.Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE company_id = $1`, companyID))
	if pg.IsNotFoundError(err) {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return sub, err
}

// CreateSubscription relies on the unique company_id so that concurrent
// callers end up reading the same row.
func (s *SubscriptionStore) CreateSubscription(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (company_id) DO NOTHING`,
		subscriptionArgs(sub)...,
	)
	if err != nil {
		return nil, err
	}
	return s.GetSubscription(ctx, sub.CompanyID)
}

func (s *SubscriptionStore) SaveSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (company_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			provider_customer_id = EXCLUDED.provider_customer_id,
			provider_subscription_id = EXCLUDED.provider_subscription_id,
			provider_product_id = EXCLUDED.provider_product_id,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			trial_end = EXCLUDED.trial_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at = EXCLUDED.updated_at`,
		subscriptionArgs(sub)...,
	)
	return err
}

func (s *SubscriptionStore) GetUsage(ctx context.Context, companyID uuid.UUID, periodStart time.Time) (*subscription.UsageMetrics, error) {
	u, err := scanUsage(s.db.QueryRow(ctx,
		`SELECT `+usageColumns+` FROM usage_metrics WHERE company_id = $1 AND period_start = $2`,
		companyID, periodStart))
	if pg.IsNotFoundError(err) {
		return nil, subscription.ErrUsageNotFound
	}
	return u, err
}

func (s *SubscriptionStore) EnsureUsage(ctx context.Context, u *subscription.UsageMetrics) (*subscription.UsageMetrics, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO usage_metrics (`+usageColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (company_id, period_start) DO NOTHING`,
		usageArgs(u)...,
	)
	if err != nil {
		return nil, err
	}
	return s.GetUsage(ctx, u.CompanyID, u.PeriodStart)
}

func (s *SubscriptionStore) CreateUsage(ctx context.Context, u *subscription.UsageMetrics) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO usage_metrics (`+usageColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		usageArgs(u)...,
	)
	if pg.IsDuplicateKeyError(err) {
		return subscription.ErrUsagePeriodExists
	}
	return err
}

func (s *SubscriptionStore) IncrementUsage(ctx context.Context, companyID uuid.UUID, periodStart time.Time, res subscription.Resource, delta int64) error {
	var column string
	switch res {
	case subscription.ResourceProjects:
		column = "project_count"
	case subscription.ResourceFeedbacks:
		column = "feedback_count"
	default:
		return subscription.ErrInvalidResource
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE usage_metrics SET `+column+` = `+column+` + $3, updated_at = now()
		 WHERE company_id = $1 AND period_start = $2`,
		companyID, periodStart, delta,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrUsageNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID, &sub.CompanyID, &sub.Plan, &sub.Status,
		&sub.ProviderCustomerID, &sub.ProviderSubID, &sub.ProviderProductID,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.TrialEnd, &sub.CancelAtPeriodEnd,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func subscriptionArgs(sub *subscription.Subscription) []any {
	return []any{
		sub.ID, sub.CompanyID, string(sub.Plan), string(sub.Status),
		sub.ProviderCustomerID, sub.ProviderSubID, sub.ProviderProductID,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEnd, sub.CancelAtPeriodEnd,
		sub.CreatedAt, sub.UpdatedAt,
	}
}

func scanUsage(row rowScanner) (*subscription.UsageMetrics, error) {
	var u subscription.UsageMetrics
	err := row.Scan(&u.ID, &u.CompanyID, &u.PeriodStart, &u.PeriodEnd,
		&u.ProjectCount, &u.FeedbackCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func usageArgs(u *subscription.UsageMetrics) []any {
	return []any{u.ID, u.CompanyID, u.PeriodStart, u.PeriodEnd,
		u.ProjectCount, u.FeedbackCount, u.CreatedAt, u.UpdatedAt}
}

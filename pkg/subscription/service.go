package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/logger"
)

// Service defines the public interface for subscription management.
type Service interface {
	// Subscription and usage rows
	GetOrCreateSubscription(ctx context.Context, companyID uuid.UUID) (*Subscription, error)
	CurrentPeriod(sub *Subscription) Period
	GetOrCreateUsageMetrics(ctx context.Context, companyID uuid.UUID) (*UsageMetrics, error)

	// Limits and features
	CanCreateProject(ctx context.Context, companyID uuid.UUID) (bool, error)
	CanCreateFeedback(ctx context.Context, companyID uuid.UUID) (bool, error)
	IncrementProjectCount(ctx context.Context, companyID uuid.UUID) error
	IncrementFeedbackCount(ctx context.Context, companyID uuid.UUID) error
	GetCurrentUsage(ctx context.Context, companyID uuid.UUID) (*Usage, error)
	HasFeature(ctx context.Context, companyID uuid.UUID, feature Feature) (bool, error)
	IsInTrial(sub *Subscription) bool
	TrialDaysRemaining(sub *Subscription) int

	// Lifecycle
	UpdateSubscriptionPlan(ctx context.Context, companyID uuid.UUID, plan Plan, status Status, data PlanUpdate) (*Subscription, error)
	ResetUsageForPeriod(ctx context.Context, companyID uuid.UUID, period Period) (*UsageMetrics, error)
	CancelSubscription(ctx context.Context, companyID uuid.UUID) (*Subscription, error)
	ReactivateSubscription(ctx context.Context, companyID uuid.UUID) (*Subscription, error)

	// Billing provider interactions
	CreateCheckoutLink(ctx context.Context, companyID uuid.UUID, opts CheckoutOptions) (*CheckoutLink, error)
	GetCustomerPortalLink(ctx context.Context, companyID uuid.UUID) (*PortalLink, error)
	HandleWebhookEvent(ctx context.Context, event *WebhookEvent) error
}

// ResourceCounterFunc returns the current lifetime usage for a company resource.
type ResourceCounterFunc func(ctx context.Context, companyID uuid.UUID) (int64, error)

// PlanUpdate carries the provider-driven fields of a plan change.
// Zero values leave the stored field untouched.
type PlanUpdate struct {
	ProviderCustomerID string
	ProviderSubID      string
	ProviderProductID  string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	TrialEnd           *time.Time
}

type service struct {
	store    Store
	counters map[Resource]ResourceCounterFunc
	provider BillingProvider
	catalog  ProductCatalog
	now      func() time.Time
	log      *slog.Logger
}

// NewService creates a new Service backed by store.
// Panics if store is nil to fail fast during initialization.
func NewService(store Store, opts ...ServiceOption) Service {
	if store == nil {
		panic("subscription: Store is required")
	}

	s := &service{
		store:    store,
		counters: make(map[Resource]ResourceCounterFunc),
		catalog:  ProductCatalog{},
		now:      func() time.Time { return time.Now().UTC() },
		log:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetOrCreateSubscription returns the company's subscription, creating a FREE/ACTIVE one if absent.
func (s *service) GetOrCreateSubscription(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	if companyID == uuid.Nil {
		return nil, ErrMissingCompanyID
	}

	sub, err := s.store.GetSubscription(ctx, companyID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, errors.Join(ErrFailedToGetSubscription, err)
	}

	sub, err = s.store.CreateSubscription(ctx, NewFreeSubscription(companyID, s.now()))
	if err != nil {
		return nil, errors.Join(ErrFailedToSaveSubscription, err)
	}

	s.log.InfoContext(ctx, "free subscription created",
		logger.Component("subscription"),
		logger.CompanyID(companyID),
	)

	return sub, nil
}

// CurrentPeriod resolves the usage window of sub at the service clock.
func (s *service) CurrentPeriod(sub *Subscription) Period {
	return CurrentPeriod(sub, s.now())
}

// GetOrCreateUsageMetrics returns the usage row of the current period, creating a zeroed one if absent.
func (s *service) GetOrCreateUsageMetrics(ctx context.Context, companyID uuid.UUID) (*UsageMetrics, error) {
	sub, err := s.GetOrCreateSubscription(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.usageFor(ctx, sub)
}

func (s *service) usageFor(ctx context.Context, sub *Subscription) (*UsageMetrics, error) {
	period := s.CurrentPeriod(sub)

	usage, err := s.store.GetUsage(ctx, sub.CompanyID, period.Start)
	if err == nil {
		return usage, nil
	}
	if !errors.Is(err, ErrUsageNotFound) {
		return nil, errors.Join(ErrFailedToGetUsage, err)
	}

	usage, err = s.store.EnsureUsage(ctx, s.newUsage(sub.CompanyID, period))
	if err != nil {
		return nil, errors.Join(ErrFailedToGetUsage, err)
	}
	return usage, nil
}

func (s *service) newUsage(companyID uuid.UUID, period Period) *UsageMetrics {
	now := s.now()
	return &UsageMetrics{
		ID:          uuid.New(),
		CompanyID:   companyID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *service) countProjects(ctx context.Context, companyID uuid.UUID) (int64, error) {
	counter, ok := s.counters[ResourceProjects]
	if !ok {
		return 0, ErrNoCounterRegistered
	}
	n, err := counter(ctx, companyID)
	if err != nil {
		return 0, errors.Join(ErrFailedToCountResourceUsage, err)
	}
	return n, nil
}

// CanCreateProject compares the lifetime project count against the plan limit.
func (s *service) CanCreateProject(ctx context.Context, companyID uuid.UUID) (bool, error) {
	sub, err := s.GetOrCreateSubscription(ctx, companyID)
	if err != nil {
		return false, err
	}

	limit := GetPlanConfig(sub.Plan).Limits.Projects
	if IsUnlimited(limit) {
		return true, nil
	}

	current, err := s.countProjects(ctx, companyID)
	if err != nil {
		return false, err
	}

	return current < limit, nil
}

// CanCreateFeedback compares the current period's feedback counter against the monthly limit.
func (s *service) CanCreateFeedback(ctx context.Context, companyID uuid.UUID) (bool, error) {
	sub, err := s.GetOrCreateSubscription(ctx, companyID)
	if err != nil {
		return false, err
	}

	limit := GetPlanConfig(sub.Plan).Limits.FeedbacksPerMonth
	if IsUnlimited(limit) {
		return true, nil
	}

	usage, err := s.usageFor(ctx, sub)
	if err != nil {
		return false, err
	}

	return usage.FeedbackCount < limit, nil
}

// IncrementProjectCount bumps the advisory project counter of the current period.
func (s *service) IncrementProjectCount(ctx context.Context, companyID uuid.UUID) error {
	return s.increment(ctx, companyID, ResourceProjects)
}

// IncrementFeedbackCount bumps the feedback counter of the current period.
func (s *service) IncrementFeedbackCount(ctx context.Context, companyID uuid.UUID) error {
	return s.increment(ctx, companyID, ResourceFeedbacks)
}

func (s *service) increment(ctx context.Context, companyID uuid.UUID, res Resource) error {
	usage, err := s.GetOrCreateUsageMetrics(ctx, companyID)
	if err != nil {
		return err
	}
	if err := s.store.IncrementUsage(ctx, companyID, usage.PeriodStart, res, 1); err != nil {
		return errors.Join(ErrFailedToIncrementUsage, err)
	}
	return nil
}

// GetCurrentUsage returns a usage snapshot for display.
// Projects report the lifetime count, feedbacks the current period's counter.
func (s *service) GetCurrentUsage(ctx context.Context, companyID uuid.UUID) (*Usage, error) {
	sub, err := s.GetOrCreateSubscription(ctx, companyID)
	if err != nil {
		return nil, err
	}

	usage, err := s.usageFor(ctx, sub)
	if err != nil {
		return nil, err
	}

	projects, err := s.countProjects(ctx, companyID)
	if err != nil {
		return nil, err
	}

	limits := GetPlanConfig(sub.Plan).Limits

	return &Usage{
		Plan:        sub.Plan,
		Projects:    newResourceUsage(projects, limits.Projects),
		Feedbacks:   newResourceUsage(usage.FeedbackCount, limits.FeedbacksPerMonth),
		PeriodStart: usage.PeriodStart,
		PeriodEnd:   usage.PeriodEnd,
	}, nil
}

// HasFeature checks if the company's plan includes a feature.
func (s *service) HasFeature(ctx context.Context, companyID uuid.UUID, feature Feature) (bool, error) {
	sub, err := s.GetOrCreateSubscription(ctx, companyID)
	if err != nil {
		return false, err
	}
	return PlanHasFeature(sub.Plan, feature), nil
}

func (s *service) IsInTrial(sub *Subscription) bool {
	return sub != nil && sub.IsInTrialAt(s.now())
}

func (s *service) TrialDaysRemaining(sub *Subscription) int {
	if sub == nil {
		return 0
	}
	return sub.TrialDaysRemainingAt(s.now())
}

// UpdateSubscriptionPlan upserts plan, status and provider fields of the company's subscription.
func (s *service) UpdateSubscriptionPlan(ctx context.Context, companyID uuid.UUID, plan Plan, status Status, data PlanUpdate) (*Subscription, error) {
	if companyID == uuid.Nil {
		return nil, ErrMissingCompanyID
	}
	if _, ok := plans[plan]; !ok {
		return nil, ErrPlanNotFound
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	now := s.now()
	sub, err := s.store.GetSubscription(ctx, companyID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		sub = &Subscription{ID: uuid.New(), CompanyID: companyID, CreatedAt: now}
	case err != nil:
		return nil, errors.Join(ErrFailedToGetSubscription, err)
	}

	previous := sub.Plan
	sub.Plan = plan
	sub.Status = status
	sub.UpdatedAt = now
	data.apply(sub)

	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return nil, errors.Join(ErrFailedToSaveSubscription, err)
	}

	s.log.InfoContext(ctx, "subscription plan updated",
		logger.Component("subscription"),
		logger.CompanyID(companyID),
		slog.String("previous_plan", string(previous)),
		logger.Plan(plan),
		slog.String("status", string(status)),
	)

	return sub, nil
}

func (d PlanUpdate) apply(sub *Subscription) {
	if d.ProviderCustomerID != "" {
		sub.ProviderCustomerID = d.ProviderCustomerID
	}
	if d.ProviderSubID != "" {
		sub.ProviderSubID = d.ProviderSubID
	}
	if d.ProviderProductID != "" {
		sub.ProviderProductID = d.ProviderProductID
	}
	if d.CurrentPeriodStart != nil {
		sub.CurrentPeriodStart = d.CurrentPeriodStart
	}
	if d.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = d.CurrentPeriodEnd
	}
	if d.TrialEnd != nil {
		sub.TrialEnd = d.TrialEnd
	}
}

// ResetUsageForPeriod opens a zeroed usage row for a new period.
// Returns ErrUsagePeriodExists if the period already has a row.
func (s *service) ResetUsageForPeriod(ctx context.Context, companyID uuid.UUID, period Period) (*UsageMetrics, error) {
	if companyID == uuid.Nil {
		return nil, ErrMissingCompanyID
	}
	if period.Start.IsZero() || period.End.Before(period.Start) {
		return nil, ErrInvalidPeriod
	}

	usage := s.newUsage(companyID, period)
	if err := s.store.CreateUsage(ctx, usage); err != nil {
		if errors.Is(err, ErrUsagePeriodExists) {
			return nil, err
		}
		return nil, fmt.Errorf("reset usage for period: %w", err)
	}

	return usage, nil
}

// CancelSubscription schedules cancellation at period end without downgrading.
func (s *service) CancelSubscription(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	return s.mutate(ctx, companyID, func(sub *Subscription) {
		sub.CancelAtPeriodEnd = true
	})
}

// ReactivateSubscription clears a scheduled cancellation and forces ACTIVE status.
func (s *service) ReactivateSubscription(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	return s.mutate(ctx, companyID, func(sub *Subscription) {
		sub.CancelAtPeriodEnd = false
		sub.Status = StatusActive
	})
}

func (s *service) mutate(ctx context.Context, companyID uuid.UUID, fn func(*Subscription)) (*Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, companyID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrFailedToGetSubscription, err)
	}

	fn(sub)
	sub.UpdatedAt = s.now()

	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return nil, errors.Join(ErrFailedToSaveSubscription, err)
	}
	return sub, nil
}

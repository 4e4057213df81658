package subscription

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Subscription represents a company's subscription to a plan.
// Each company has at most one subscription.
type Subscription struct {
	ID                 uuid.UUID  `json:"id"`
	CompanyID          uuid.UUID  `json:"companyId"`
	Plan               Plan       `json:"plan"`
	Status             Status     `json:"status"`
	ProviderCustomerID string     `json:"providerCustomerId,omitempty"`
	ProviderSubID      string     `json:"providerSubscriptionId,omitempty"`
	ProviderProductID  string     `json:"providerProductId,omitempty"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	TrialEnd           *time.Time `json:"trialEnd,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancelAtPeriodEnd"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// NewFreeSubscription returns the default subscription every company starts with.
func NewFreeSubscription(companyID uuid.UUID, now time.Time) *Subscription {
	return &Subscription{
		ID:        uuid.New(),
		CompanyID: companyID,
		Plan:      PlanFree,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsInTrialAt reports whether the subscription is trialing and the trial has not ended at now.
func (s *Subscription) IsInTrialAt(now time.Time) bool {
	if s.Status != StatusTrialing || s.TrialEnd == nil {
		return false
	}
	return now.Before(*s.TrialEnd)
}

// TrialDaysRemainingAt returns the whole days left until TrialEnd, rounded up.
// It looks at TrialEnd only, so a converted subscription still reports leftover days.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if s.TrialEnd == nil {
		return 0
	}
	remaining := s.TrialEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// UsageMetrics is the usage counter row of one company for one billing period.
type UsageMetrics struct {
	ID            uuid.UUID `json:"id"`
	CompanyID     uuid.UUID `json:"companyId"`
	PeriodStart   time.Time `json:"periodStart"`
	PeriodEnd     time.Time `json:"periodEnd"`
	ProjectCount  int64     `json:"projectCount"`
	FeedbackCount int64     `json:"feedbackCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ResourceUsage is the display shape of one limited resource.
type ResourceUsage struct {
	Current     int64   `json:"current"`
	Limit       int64   `json:"limit"`
	IsUnlimited bool    `json:"isUnlimited"`
	Percentage  float64 `json:"percentage"`
}

func newResourceUsage(current, limit int64) ResourceUsage {
	u := ResourceUsage{Current: current, Limit: limit, IsUnlimited: IsUnlimited(limit)}
	u.Percentage = UsagePercentage(current, limit)
	return u
}

// UsagePercentage returns current/limit as a percentage capped at 100.
// Unlimited and zero limits report 0.
func UsagePercentage(current, limit int64) float64 {
	if IsUnlimited(limit) || limit <= 0 {
		return 0
	}
	return math.Min(100, float64(current)/float64(limit)*100)
}

// Usage is a point-in-time usage snapshot of a company.
type Usage struct {
	Plan        Plan          `json:"plan"`
	Projects    ResourceUsage `json:"projects"`
	Feedbacks   ResourceUsage `json:"feedbacks"`
	PeriodStart time.Time     `json:"periodStart"`
	PeriodEnd   time.Time     `json:"periodEnd"`
}

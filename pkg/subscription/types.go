package subscription

import "strings"

// Plan is a subscription tier.
type Plan string

const (
	PlanFree       Plan = "FREE"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

// ParsePlan converts a case-insensitive plan name into a Plan.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := plans[p]; !ok {
		return "", ErrPlanNotFound
	}
	return p, nil
}

// Status represents the current state of a subscription.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusTrialing   Status = "TRIALING"
	StatusPastDue    Status = "PAST_DUE"
	StatusCanceled   Status = "CANCELED"
	StatusIncomplete Status = "INCOMPLETE"
	StatusOnHold     Status = "ON_HOLD"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPastDue, StatusCanceled, StatusIncomplete, StatusOnHold:
		return true
	}
	return false
}

// Resource is a countable company resource gated by a plan limit.
type Resource string

const (
	ResourceProjects  Resource = "projects"
	ResourceFeedbacks Resource = "feedbacks"
)

// Unlimited indicates no limit for a resource (-1 chosen for SQL compatibility)
const Unlimited int64 = -1

// IsUnlimited reports whether limit means "no limit".
func IsUnlimited(limit int64) bool {
	return limit == Unlimited
}

// Feature represents a plan-specific capability.
type Feature string

const (
	FeatureBasicAnalytics    Feature = "basic_analytics"
	FeatureAdvancedAnalytics Feature = "advanced_analytics"
	FeatureCustomBranding    Feature = "custom_branding"
	FeatureEmailSupport      Feature = "email_support"
	FeaturePrioritySupport   Feature = "priority_support"
	FeatureAPIAccess         Feature = "api_access"
	FeatureSSO               Feature = "sso"
	FeatureDedicatedSupport  Feature = "dedicated_support"
	FeatureSLA               Feature = "sla"
	FeatureCustomContracts   Feature = "custom_contracts"
)

// BillingInterval represents the billing frequency of a paid plan.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

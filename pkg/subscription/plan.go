package subscription

import (
	"fmt"
	"slices"
)

// Limits holds the resource caps of a plan. -1 represents unlimited.
type Limits struct {
	Projects          int64 `json:"projects"`
	FeedbacksPerMonth int64 `json:"feedbacksPerMonth"`
}

// For returns the limit configured for a resource.
func (l Limits) For(res Resource) (int64, bool) {
	switch res {
	case ResourceProjects:
		return l.Projects, true
	case ResourceFeedbacks:
		return l.FeedbacksPerMonth, true
	}
	return 0, false
}

// Price describes the list price of a plan in whole US dollars.
// Custom is set for plans sold through sales contracts.
type Price struct {
	Monthly int  `json:"monthly"`
	Annual  int  `json:"annual"`
	Custom  bool `json:"custom,omitempty"`
}

// PlanConfig describes a plan and its resource/feature constraints.
type PlanConfig struct {
	ID              Plan      `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Price           Price     `json:"price"`
	Limits          Limits    `json:"limits"`
	Features        []Feature `json:"features"`
	DisplayFeatures []string  `json:"displayFeatures"`
	TrialDays       int       `json:"trialDays,omitempty"`
}

// HasFeature reports whether the plan includes the feature.
func (p PlanConfig) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

var proFeatures = []Feature{
	FeatureBasicAnalytics,
	FeatureAdvancedAnalytics,
	FeatureCustomBranding,
	FeaturePrioritySupport,
	FeatureAPIAccess,
}

var plans = map[Plan]PlanConfig{
	PlanFree: {
		ID:          PlanFree,
		Name:        "Hobby",
		Description: "For personal projects",
		Limits:      Limits{Projects: 1, FeedbacksPerMonth: 50},
		Features:    []Feature{FeatureBasicAnalytics, FeatureEmailSupport},
		DisplayFeatures: []string{
			"1 Project",
			"50 Feedbacks / mo",
			"Basic Analytics",
		},
	},
	PlanPro: {
		ID:          PlanPro,
		Name:        "Pro",
		Description: "For growing startups",
		Price:       Price{Monthly: 39, Annual: 29},
		Limits:      Limits{Projects: Unlimited, FeedbacksPerMonth: Unlimited},
		Features:    proFeatures,
		DisplayFeatures: []string{
			"Unlimited Projects",
			"Unlimited Feedback",
			"Advanced Analytics",
			"Custom Branding",
		},
		TrialDays: 14,
	},
	PlanEnterprise: {
		ID:          PlanEnterprise,
		Name:        "Enterprise",
		Description: "For large teams",
		Price:       Price{Custom: true},
		Limits:      Limits{Projects: Unlimited, FeedbacksPerMonth: Unlimited},
		Features: append(slices.Clone(proFeatures),
			FeatureSSO,
			FeatureDedicatedSupport,
			FeatureSLA,
			FeatureCustomContracts,
		),
		DisplayFeatures: []string{
			"SSO & Advanced Security",
			"Dedicated Support",
			"SLA Guarantee",
		},
	},
}

// GetPlanConfig returns the static configuration of a plan.
// Unknown plans resolve to FREE so that a corrupted row never grants more than the base tier.
func GetPlanConfig(p Plan) PlanConfig {
	if cfg, ok := plans[p]; ok {
		return cfg
	}
	return plans[PlanFree]
}

// PlanHasFeature reports whether the plan includes the feature.
func PlanHasFeature(p Plan, f Feature) bool {
	return GetPlanConfig(p).HasFeature(f)
}

// AllPlans returns the plan table ordered from cheapest to most expensive.
func AllPlans() []PlanConfig {
	return []PlanConfig{plans[PlanFree], plans[PlanPro], plans[PlanEnterprise]}
}

// DisplayPrice renders the list price of a plan for pricing pages.
// Interval only matters for plans with distinct monthly and annual prices.
func DisplayPrice(p Plan, interval BillingInterval) string {
	cfg := GetPlanConfig(p)
	switch {
	case cfg.Price.Custom:
		return "Custom"
	case cfg.Price.Monthly == 0 && cfg.Price.Annual == 0:
		return "$0"
	case interval == BillingIntervalAnnual:
		return fmt.Sprintf("$%d/mo", cfg.Price.Annual)
	case interval == BillingIntervalMonthly:
		return fmt.Sprintf("$%d/mo", cfg.Price.Monthly)
	}
	return cfg.Name
}

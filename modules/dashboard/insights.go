package dashboard

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/analytics"
	"github.com/dmitrymomot/upvote/pkg/subscription"
)

type ScopeRequest struct {
	ApplicationID string `query:"applicationId"`
}

func (d *Dashboard) analytics(ctx handler.Context, companyID uuid.UUID, req ScopeRequest) handler.Response {
	sc, err := scope(companyID, req.ApplicationID)
	if err != nil {
		return handler.Error(err)
	}
	report, err := d.feedback.Analytics(ctx, sc)
	if err != nil {
		return handler.Error(domainError(err))
	}
	return handler.JSON(report)
}

type UsersResponse struct {
	Users []analytics.UserActivity `json:"users"`
}

func (d *Dashboard) users(ctx handler.Context, companyID uuid.UUID, req ScopeRequest) handler.Response {
	sc, err := scope(companyID, req.ApplicationID)
	if err != nil {
		return handler.Error(err)
	}
	users, err := d.feedback.Users(ctx, sc)
	if err != nil {
		return handler.Error(domainError(err))
	}
	return handler.JSON(UsersResponse{Users: users})
}

type TrialInfo struct {
	InTrial       bool `json:"inTrial"`
	DaysRemaining int  `json:"daysRemaining"`
}

type UsageResponse struct {
	*subscription.Usage
	Status            subscription.Status    `json:"status"`
	CancelAtPeriodEnd bool                   `json:"cancelAtPeriodEnd"`
	Trial             TrialInfo              `json:"trial"`
	Features          []subscription.Feature `json:"features"`
}

func (d *Dashboard) usage(ctx handler.Context, companyID uuid.UUID, _ struct{}) handler.Response {
	sub, err := d.subs.GetOrCreateSubscription(ctx, companyID)
	if err != nil {
		return handler.Error(err)
	}
	usage, err := d.subs.GetCurrentUsage(ctx, companyID)
	if err != nil {
		return handler.Error(err)
	}

	return handler.JSON(UsageResponse{
		Usage:             usage,
		Status:            sub.Status,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Trial: TrialInfo{
			InTrial:       d.subs.IsInTrial(sub),
			DaysRemaining: d.subs.TrialDaysRemaining(sub),
		},
		Features: subscription.GetPlanConfig(usage.Plan).Features,
	})
}

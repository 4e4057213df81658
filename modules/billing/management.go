package billing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/modules/account"
	"github.com/dmitrymomot/upvote/pkg/subscription"
	accountsvc "github.com/dmitrymomot/upvote/svc/account"
)

// Management serves /api/billing: the public plan table and the
// subscription actions of the signed-in company.
type Management struct {
	subs         subscription.Service
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewManagement(subs subscription.Service, errorHandler handler.ErrorHandler[handler.Context]) *Management {
	if subs == nil {
		panic("billing: subscription service is required")
	}
	return &Management{subs: subs, errorHandler: errorHandler}
}

func (m *Management) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/plans", handler.Wrap(m.plans))
	r.Post("/cancel", m.authed(m.cancel))
	r.Post("/reactivate", m.authed(m.reactivate))
	r.Get("/portal", m.authed(m.portal))

	return r
}

func (m *Management) authed(fn func(ctx handler.Context, companyID uuid.UUID) handler.Response) http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		p, _ := accountsvc.PrincipalFromContext(ctx)
		return fn(ctx, p.CompanyID)
	},
		handler.WithDecorators(account.RequireSession[struct{}]()),
		handler.WithErrorHandler[handler.Context, struct{}](m.errorHandler),
	)
}

type PlansResponse struct {
	Plans []subscription.PlanConfig `json:"plans"`
}

func (m *Management) plans(handler.Context, struct{}) handler.Response {
	return handler.JSON(PlansResponse{Plans: subscription.AllPlans()})
}

type SubscriptionResponse struct {
	Subscription *subscription.Subscription `json:"subscription"`
}

func (m *Management) cancel(ctx handler.Context, companyID uuid.UUID) handler.Response {
	sub, err := m.subs.CancelSubscription(ctx, companyID)
	if err != nil {
		return handler.Error(billingError(err))
	}
	return handler.JSON(SubscriptionResponse{Subscription: sub})
}

func (m *Management) reactivate(ctx handler.Context, companyID uuid.UUID) handler.Response {
	sub, err := m.subs.ReactivateSubscription(ctx, companyID)
	if err != nil {
		return handler.Error(billingError(err))
	}
	return handler.JSON(SubscriptionResponse{Subscription: sub})
}

func (m *Management) portal(ctx handler.Context, companyID uuid.UUID) handler.Response {
	link, err := m.subs.GetCustomerPortalLink(ctx, companyID)
	if err != nil {
		return checkoutError(err)
	}
	return handler.JSON(link)
}

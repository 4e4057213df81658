// Package dashboard serves the authenticated /api/dashboard endpoints. Every
// read and write is scoped to the company of the session principal.
package dashboard

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/modules/account"
	"github.com/dmitrymomot/upvote/pkg/binder"
	"github.com/dmitrymomot/upvote/pkg/subscription"
	accountsvc "github.com/dmitrymomot/upvote/svc/account"
	"github.com/dmitrymomot/upvote/svc/feedback"
)

type Dashboard struct {
	cfg          Config
	feedback     feedback.Service
	subs         subscription.Service
	errorHandler handler.ErrorHandler[handler.Context]
}

func New(cfg Config, feedbackSvc feedback.Service, subs subscription.Service, errorHandler handler.ErrorHandler[handler.Context]) *Dashboard {
	if feedbackSvc == nil {
		panic("dashboard: feedback service is required")
	}
	if subs == nil {
		panic("dashboard: subscription service is required")
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &Dashboard{cfg: cfg, feedback: feedbackSvc, subs: subs, errorHandler: errorHandler}
}

// Handle returns the dashboard router. The caller must install the session
// middleware; requests without a principal get 401.
func (d *Dashboard) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/applications", wrap(d, d.listApplications))
	r.Post("/applications", wrap(d, d.createApplication, binder.JSON()))
	r.Patch("/applications", wrap(d, d.renameApplication, binder.JSON()))
	r.Delete("/applications", wrap(d, d.deleteApplication, binder.Query()))
	r.Get("/applications/{id}/embed", wrap(d, d.embedSnippet, binder.Path(chi.URLParam), binder.Query()))

	r.Get("/feedback", wrap(d, d.listFeedback, binder.Query()))
	r.Patch("/feedback", wrap(d, d.updateFeedback, binder.JSON()))

	r.Get("/analytics", wrap(d, d.analytics, binder.Query()))
	r.Get("/users", wrap(d, d.users, binder.Query()))
	r.Get("/usage", wrap(d, d.usage))

	return r
}

// wrap runs fn with the company id of the session principal.
func wrap[R any](d *Dashboard, fn func(ctx handler.Context, companyID uuid.UUID, req R) handler.Response, binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, req R) handler.Response {
		p, _ := accountsvc.PrincipalFromContext(ctx)
		return fn(ctx, p.CompanyID, req)
	},
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithDecorators(account.RequireSession[R]()),
		handler.WithErrorHandler[handler.Context, R](d.errorHandler),
	)
}

var (
	errApplicationIDRequired = handler.BadRequest("Application ID is required")
	errApplicationName       = handler.BadRequest("Application name is required")
	errApplicationNotFound   = handler.NotFound("Application not found")
	errFeedbackNotFound      = handler.NotFound("Feedback not found")
	errFeedbackUpdate        = handler.BadRequest("id and status or reply are required")
	errInvalidStatus         = handler.BadRequest("Invalid status")
)

// scope builds the read scope from an optional applicationId parameter.
func scope(companyID uuid.UUID, applicationID string) (feedback.Scope, error) {
	s := feedback.Scope{CompanyID: companyID}
	if applicationID == "" {
		return s, nil
	}
	id, err := uuid.Parse(applicationID)
	if err != nil {
		return s, errApplicationNotFound
	}
	s.ApplicationID = &id
	return s, nil
}

func domainError(err error) error {
	switch {
	case errors.Is(err, feedback.ErrApplicationNotFound):
		return errApplicationNotFound
	case errors.Is(err, feedback.ErrFeedbackNotFound):
		return errFeedbackNotFound
	case errors.Is(err, feedback.ErrMissingName):
		return errApplicationName
	case errors.Is(err, feedback.ErrNothingToUpdate):
		return errFeedbackUpdate
	case errors.Is(err, feedback.ErrInvalidStatus):
		return errInvalidStatus
	}
	return err
}

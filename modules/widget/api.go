package widget

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/binder"
	"github.com/dmitrymomot/upvote/svc/feedback"
)

// API serves the public /api/widget endpoints. End users are identified by
// the caller-supplied userId only.
type API struct {
	feedback     feedback.Service
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewAPI(svc feedback.Service, errorHandler handler.ErrorHandler[handler.Context]) *API {
	if svc == nil {
		panic("widget: feedback service is required")
	}
	return &API{feedback: svc, errorHandler: errorHandler}
}

func (a *API) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/feedback", handler.Wrap(a.listFeedback,
		handler.WithBinders[handler.Context, ListRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, ListRequest](a.errorHandler),
	))
	r.Post("/feedback", handler.Wrap(a.submitFeedback,
		handler.WithBinders[handler.Context, SubmitRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, SubmitRequest](a.errorHandler),
	))
	r.Post("/vote", handler.Wrap(a.vote,
		handler.WithBinders[handler.Context, VoteRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, VoteRequest](a.errorHandler),
	))
	r.Delete("/vote", handler.Wrap(a.removeVote,
		handler.WithBinders[handler.Context, VoteRequest](binder.JSON(), binder.Query()),
		handler.WithErrorHandler[handler.Context, VoteRequest](a.errorHandler),
	))

	return r
}

var (
	errApplicationRequired = handler.BadRequest("applicationId is required")
	errInvalidApplication  = handler.NotFound("Invalid applicationId")
	errSubmitFields        = handler.BadRequest("applicationId, userId, and title are required")
	errVoteType            = handler.BadRequest("Valid voteType (UPVOTE) is required")
	errVoteFields          = handler.BadRequest("applicationId, feedbackId, and userId are required")
	errFeedbackNotFound    = handler.NotFound("Feedback not found")
	errVoteNotFound        = handler.NotFound("Vote not found")
)

type ListRequest struct {
	ApplicationID string `query:"applicationId"`
	UserID        string `query:"userId"`
	Sort          string `query:"sort"`
	Page          int    `query:"page"`
	Limit         int    `query:"limit"`
}

func (a *API) listFeedback(ctx handler.Context, req ListRequest) handler.Response {
	if strings.TrimSpace(req.ApplicationID) == "" {
		return handler.Error(errApplicationRequired)
	}
	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return handler.Error(errInvalidApplication)
	}

	page, err := a.feedback.ListWidgetFeedback(ctx, feedback.WidgetListParams{
		ApplicationID: appID,
		UserID:        req.UserID,
		Sort:          feedback.ParseSort(req.Sort),
		Page:          req.Page,
		Limit:         req.Limit,
	})
	if err != nil {
		if errors.Is(err, feedback.ErrApplicationNotFound) {
			return handler.Error(errInvalidApplication)
		}
		return handler.Error(err)
	}
	return handler.JSON(page)
}

type SubmitRequest struct {
	ApplicationID string   `json:"applicationId"`
	UserID        string   `json:"userId"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
}

type SubmitResponse struct {
	Feedback *feedback.WidgetItem `json:"feedback"`
}

func (a *API) submitFeedback(ctx handler.Context, req SubmitRequest) handler.Response {
	if strings.TrimSpace(req.ApplicationID) == "" || strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Title) == "" {
		return handler.Error(errSubmitFields)
	}
	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return handler.Error(errInvalidApplication)
	}

	item, err := a.feedback.SubmitFeedback(ctx, feedback.SubmitParams{
		ApplicationID: appID,
		UserID:        req.UserID,
		Title:         req.Title,
		Description:   req.Description,
		Tags:          req.Tags,
	})
	if err != nil {
		switch {
		case errors.Is(err, feedback.ErrMissingFields):
			return handler.Error(errSubmitFields)
		case errors.Is(err, feedback.ErrApplicationNotFound):
			return handler.Error(errInvalidApplication)
		}
		return handler.Error(err)
	}
	return handler.Created(SubmitResponse{Feedback: item})
}

type VoteRequest struct {
	ApplicationID string `json:"applicationId" query:"applicationId"`
	FeedbackID    string `json:"feedbackId" query:"feedbackId"`
	UserID        string `json:"userId" query:"userId"`
	VoteType      string `json:"voteType" query:"voteType"`
}

// params parses the vote identifiers. ok is false when any of them is empty;
// malformed ids are reported as errFeedbackNotFound since no such row can exist.
func (req VoteRequest) params() (feedback.VoteParams, bool, error) {
	if strings.TrimSpace(req.ApplicationID) == "" || strings.TrimSpace(req.FeedbackID) == "" || strings.TrimSpace(req.UserID) == "" {
		return feedback.VoteParams{}, false, nil
	}
	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return feedback.VoteParams{}, true, errFeedbackNotFound
	}
	feedbackID, err := uuid.Parse(req.FeedbackID)
	if err != nil {
		return feedback.VoteParams{}, true, errFeedbackNotFound
	}
	return feedback.VoteParams{
		ApplicationID: appID,
		FeedbackID:    feedbackID,
		UserID:        req.UserID,
		Type:          feedback.VoteType(req.VoteType),
	}, true, nil
}

func (a *API) vote(ctx handler.Context, req VoteRequest) handler.Response {
	params, ok, err := req.params()
	if !ok || feedback.VoteType(req.VoteType) != feedback.VoteUp {
		return handler.Error(errVoteType)
	}
	if err != nil {
		return handler.Error(err)
	}

	res, err := a.feedback.Vote(ctx, params)
	if err != nil {
		return handler.Error(voteError(err))
	}
	return handler.JSON(res)
}

func (a *API) removeVote(ctx handler.Context, req VoteRequest) handler.Response {
	params, ok, err := req.params()
	if !ok {
		return handler.Error(errVoteFields)
	}
	if err != nil {
		return handler.Error(err)
	}

	res, err := a.feedback.RemoveVote(ctx, params)
	if err != nil {
		return handler.Error(voteError(err))
	}
	return handler.JSON(res)
}

func voteError(err error) error {
	switch {
	case errors.Is(err, feedback.ErrMissingVoteFields):
		return errVoteFields
	case errors.Is(err, feedback.ErrInvalidVoteType):
		return errVoteType
	case errors.Is(err, feedback.ErrFeedbackNotFound):
		return errFeedbackNotFound
	case errors.Is(err, feedback.ErrVoteNotFound):
		return errVoteNotFound
	}
	return err
}

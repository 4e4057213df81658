package dashboard

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/svc/feedback"
)

type ListFeedbackRequest struct {
	ApplicationID string `query:"applicationId"`
	Status        string `query:"status"`
	Sort          string `query:"sort"`
}

type FeedbackListResponse struct {
	Feedback []feedback.Feedback `json:"feedback"`
}

func (d *Dashboard) listFeedback(ctx handler.Context, companyID uuid.UUID, req ListFeedbackRequest) handler.Response {
	sc, err := scope(companyID, req.ApplicationID)
	if err != nil {
		return handler.Error(err)
	}
	items, err := d.feedback.ListFeedback(ctx, sc, feedback.Status(req.Status), feedback.ParseSort(req.Sort))
	if err != nil {
		return handler.Error(domainError(err))
	}
	return handler.JSON(FeedbackListResponse{Feedback: items})
}

type UpdateFeedbackRequest struct {
	ID     string           `json:"id"`
	Status *feedback.Status `json:"status"`
	Reply  *string          `json:"reply"`
}

type FeedbackResponse struct {
	Feedback *feedback.Feedback `json:"feedback"`
}

func (d *Dashboard) updateFeedback(ctx handler.Context, companyID uuid.UUID, req UpdateFeedbackRequest) handler.Response {
	if req.Status != nil && *req.Status == "" {
		req.Status = nil
	}
	if req.ID == "" || (req.Status == nil && req.Reply == nil) {
		return handler.Error(errFeedbackUpdate)
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return handler.Error(errFeedbackNotFound)
	}

	f, err := d.feedback.UpdateFeedback(ctx, companyID, feedback.UpdateParams{
		ID:     id,
		Status: req.Status,
		Reply:  req.Reply,
	})
	if err != nil {
		return handler.Error(domainError(err))
	}
	return handler.JSON(FeedbackResponse{Feedback: f})
}

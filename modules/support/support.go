// Package support serves the anonymous contact form at /api/support.
package support

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/binder"
	"github.com/dmitrymomot/upvote/pkg/sanitizer"
	supportsvc "github.com/dmitrymomot/upvote/svc/support"
)

var errMissingFields = handler.BadRequest("Email and message are required")

type Handler struct {
	tickets      supportsvc.Service
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewHandler(tickets supportsvc.Service, errorHandler handler.ErrorHandler[handler.Context]) *Handler {
	if tickets == nil {
		panic("support: service is required")
	}
	return &Handler{tickets: tickets, errorHandler: errorHandler}
}

func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/", handler.Wrap(h.submit,
		handler.WithBinders[handler.Context, SubmitRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, SubmitRequest](h.errorHandler),
	))
	return r
}

type SubmitRequest struct {
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"required,max=5000"`
}

type SubmitResponse struct {
	Message string             `json:"message"`
	Data    *supportsvc.Ticket `json:"data"`
}

func (h *Handler) submit(ctx handler.Context, req SubmitRequest) handler.Response {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if req.Email == "" || strings.TrimSpace(req.Message) == "" {
		return handler.Error(errMissingFields)
	}
	if err := handler.Validate(req); err != nil {
		return handler.Error(err)
	}

	ticket, err := h.tickets.Submit(ctx, req.Email, req.Message)
	if err != nil {
		if errors.Is(err, supportsvc.ErrMissingFields) {
			return handler.Error(errMissingFields)
		}
		return handler.Error(err)
	}
	return handler.Created(SubmitResponse{
		Message: "Support ticket submitted successfully",
		Data:    ticket,
	})
}

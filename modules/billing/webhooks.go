package billing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/subscription"
)

const maxWebhookBody = 1 << 20

// Webhooks receives provider events on /api/webhooks/{provider}. Only the
// providers passed to NewWebhooks get a route.
type Webhooks struct {
	subs         subscription.Service
	providers    []subscription.BillingProvider
	errorHandler handler.ErrorHandler[handler.Context]
	log          *slog.Logger
}

func NewWebhooks(
	subs subscription.Service,
	errorHandler handler.ErrorHandler[handler.Context],
	log *slog.Logger,
	providers ...subscription.BillingProvider,
) *Webhooks {
	if subs == nil {
		panic("billing: subscription service is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Webhooks{subs: subs, providers: providers, errorHandler: errorHandler, log: log}
}

func (h *Webhooks) Handle() http.Handler {
	r := chi.NewRouter()
	for _, p := range h.providers {
		r.Post("/"+p.Name(), handler.Wrap(h.receive(p),
			handler.WithErrorHandler[handler.Context, struct{}](h.errorHandler),
		))
	}
	return r
}

// receive verifies the signature on the raw body before anything is decoded.
func (h *Webhooks) receive(p subscription.BillingProvider) handler.HandlerFunc[handler.Context, struct{}] {
	return func(ctx handler.Context, _ struct{}) handler.Response {
		r := ctx.Request()
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			return handler.Error(errInvalidPayload)
		}

		event, err := p.ParseWebhook(ctx, payload, r.Header)
		if err != nil {
			switch {
			case errors.Is(err, subscription.ErrWebhookVerificationFailed):
				return handler.Error(errInvalidSignature)
			case errors.Is(err, subscription.ErrInvalidWebhookPayload):
				return handler.Error(errInvalidPayload)
			}
			return handler.Error(err)
		}

		if err := h.subs.HandleWebhookEvent(ctx, event); err != nil {
			if errors.Is(err, subscription.ErrInvalidWebhookPayload) {
				return handler.Error(errInvalidPayload)
			}
			return handler.Error(err)
		}

		h.log.InfoContext(ctx, "webhook received",
			logger.Provider(p.Name()),
			logger.Event(event.ProviderEvent),
			logger.CompanyID(event.CompanyID),
		)
		return handler.JSON(map[string]bool{"received": true})
	}
}

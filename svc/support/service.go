package support

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/email"
	"github.com/dmitrymomot/upvote/pkg/email/templates"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/sanitizer"
)

// Service accepts contact-form submissions and forwards them to staff.
type Service interface {
	Submit(ctx context.Context, email, message string) (*Ticket, error)
}

type service struct {
	store  Store
	sender email.EmailSender
	inbox  string
	now    func() time.Time
	log    *slog.Logger
}

// ServiceOption configures the support service.
type ServiceOption func(*service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates the support service. Tickets are mailed to inbox when
// both sender and inbox are set. Panics if store is nil.
func NewService(store Store, sender email.EmailSender, inbox string, opts ...ServiceOption) Service {
	if store == nil {
		panic("support: Store is required")
	}

	s := &service{
		store:  store,
		sender: sender,
		inbox:  strings.TrimSpace(inbox),
		now:    time.Now,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Submit(ctx context.Context, from, message string) (*Ticket, error) {
	from = sanitizer.NormalizeEmail(from)
	message = strings.TrimSpace(message)
	if from == "" || message == "" {
		return nil, ErrMissingFields
	}

	t := &Ticket{
		ID:        uuid.New(),
		Email:     from,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateTicket(ctx, t); err != nil {
		return nil, errors.Join(ErrFailedToCreateTicket, err)
	}

	// The ticket is already stored; a failed notification must not fail the request.
	if err := s.notify(ctx, t); err != nil {
		s.log.ErrorContext(ctx, "support notification failed",
			slog.String("ticket_id", t.ID.String()),
			logger.Error(err),
		)
	}
	return t, nil
}

func (s *service) notify(ctx context.Context, t *Ticket) error {
	if s.sender == nil || s.inbox == "" {
		return nil
	}

	body, err := templates.Render(ctx, ticketNotification(t))
	if err != nil {
		return errors.Join(ErrFailedToNotify, err)
	}
	if err := s.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   s.inbox,
		ReplyTo:  t.Email,
		Subject:  "Support request from " + t.Email,
		BodyHTML: body,
		BodyText: t.Message,
		Tag:      "support",
	}); err != nil {
		return errors.Join(ErrFailedToNotify, err)
	}
	return nil
}

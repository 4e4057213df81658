package subscription

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/logger"
)

// CreateCheckoutLink creates a hosted checkout for the company through the billing provider.
func (s *service) CreateCheckoutLink(ctx context.Context, companyID uuid.UUID, opts CheckoutOptions) (*CheckoutLink, error) {
	if s.provider == nil {
		return nil, ErrProviderNotConfigured
	}
	if companyID == uuid.Nil {
		return nil, ErrMissingCompanyID
	}
	if opts.ProductID == "" {
		return nil, ErrMissingProductID
	}
	if opts.Mode == "" {
		opts.Mode = CheckoutModePaymentLink
	}

	s.log.InfoContext(ctx, "creating checkout",
		logger.Component("subscription"),
		logger.CompanyID(companyID),
		logger.Provider(s.provider.Name()),
		slog.String("product_id", opts.ProductID),
		slog.String("mode", string(opts.Mode)),
	)

	return s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		CheckoutOptions: opts,
		CompanyID:       companyID,
	})
}

// GetCustomerPortalLink returns a provider portal link for the company's paid subscription.
func (s *service) GetCustomerPortalLink(ctx context.Context, companyID uuid.UUID) (*PortalLink, error) {
	if s.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	sub, err := s.GetOrCreateSubscription(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if sub.ProviderCustomerID == "" {
		return nil, ErrMissingProviderCustomerID
	}

	return s.provider.GetCustomerPortalLink(ctx, sub)
}

// HandleWebhookEvent applies a verified provider event to the company's subscription.
func (s *service) HandleWebhookEvent(ctx context.Context, event *WebhookEvent) error {
	if event == nil {
		return ErrInvalidWebhookPayload
	}

	log := s.log.With(
		logger.Component("subscription"),
		logger.Event(string(event.Type)),
		slog.String("provider_event", event.ProviderEvent),
		slog.String("webhook_id", event.ID),
	)

	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated,
		EventSubscriptionRenewed, EventSubscriptionReactivated,
		EventSubscriptionCanceled, EventPaymentFailed:
	case EventTrialWillEnd:
		log.InfoContext(ctx, "trial ending soon", logger.CompanyID(event.CompanyID))
		return nil
	default:
		log.DebugContext(ctx, "ignoring webhook event")
		return nil
	}

	if event.CompanyID == uuid.Nil {
		return errors.Join(ErrInvalidWebhookPayload, ErrMissingCompanyID)
	}

	current, err := s.GetOrCreateSubscription(ctx, event.CompanyID)
	if err != nil {
		return err
	}

	plan := current.Plan
	status := current.Status

	switch event.Type {
	case EventSubscriptionCanceled:
		status = StatusCanceled
	case EventPaymentFailed:
		status = StatusPastDue
	default:
		if resolved, err := s.catalog.Resolve(event.ProductID); err == nil {
			plan = resolved
		} else {
			// Paid products outside the catalog still unlock the paid tier.
			log.WarnContext(ctx, "product not in catalog, assuming PRO",
				logger.Error(err),
				slog.String("product_id", event.ProductID),
			)
			plan = PlanPro
		}
		status = mapProviderStatus(event.Status, StatusActive)
	}

	updated, err := s.UpdateSubscriptionPlan(ctx, event.CompanyID, plan, status, PlanUpdate{
		ProviderCustomerID: event.CustomerID,
		ProviderSubID:      event.SubscriptionID,
		ProviderProductID:  event.ProductID,
		CurrentPeriodStart: event.CurrentPeriodStart,
		CurrentPeriodEnd:   event.CurrentPeriodEnd,
		TrialEnd:           event.TrialEnd,
	})
	if err != nil {
		return err
	}

	if event.CurrentPeriodStart != nil && event.CurrentPeriodEnd != nil &&
		(current.CurrentPeriodStart == nil || !current.CurrentPeriodStart.Equal(*event.CurrentPeriodStart)) {
		period := Period{Start: *event.CurrentPeriodStart, End: *event.CurrentPeriodEnd}
		if _, err := s.ResetUsageForPeriod(ctx, updated.CompanyID, period); err != nil && !errors.Is(err, ErrUsagePeriodExists) {
			return err
		}
	}

	log.InfoContext(ctx, "webhook applied",
		logger.CompanyID(updated.CompanyID),
		logger.Plan(updated.Plan),
		slog.String("status", string(updated.Status)),
	)
	return nil
}

// mapProviderStatus maps provider status strings to Status, falling back to def.
func mapProviderStatus(s string, def Status) Status {
	switch strings.ToLower(s) {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrialing
	case "past_due", "failed":
		return StatusPastDue
	case "canceled", "cancelled", "expired":
		return StatusCanceled
	case "pending", "incomplete":
		return StatusIncomplete
	case "on_hold", "paused":
		return StatusOnHold
	}
	return def
}

package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// BillingProvider defines the minimal interface for payment provider integrations.
// Provider handles all payment complexity through hosted checkouts and customer
// portals, eliminating PCI compliance concerns.
type BillingProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// CreateCheckoutLink creates a hosted checkout (payment link or checkout session).
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// GetCustomerPortalLink returns a temporary link to the customer portal
	// where users can update payment methods, cancel, or change plans.
	GetCustomerPortalLink(ctx context.Context, sub *Subscription) (*PortalLink, error)

	// ParseWebhook validates the signature headers and normalizes the payload.
	ParseWebhook(ctx context.Context, payload []byte, header http.Header) (*WebhookEvent, error)
}

// CheckoutMode selects the kind of hosted checkout.
type CheckoutMode string

const (
	CheckoutModePaymentLink CheckoutMode = "payment_link"
	CheckoutModeSession     CheckoutMode = "session"
)

// CheckoutOptions contains caller-controlled options for a checkout.
type CheckoutOptions struct {
	Mode      CheckoutMode
	ProductID string // Provider's product/price identifier
	Email     string // Pre-fill billing email
	Name      string
	ReturnURL string // Redirect after payment
}

// CheckoutRequest contains data needed to create a checkout.
type CheckoutRequest struct {
	CheckoutOptions
	CompanyID uuid.UUID // Round-tripped through provider metadata
}

// CheckoutLink represents a hosted checkout.
type CheckoutLink struct {
	URL       string    `json:"checkout_url"`
	SessionID string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL              string    `json:"url"`
	CancelURL        string    `json:"cancelUrl,omitempty"`
	UpdatePaymentURL string    `json:"updatePaymentUrl,omitempty"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// ProviderError is a non-2xx answer of the provider API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       []byte
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error: status %d", e.Provider, e.StatusCode)
}

// Unwrap makes ProviderError match ErrProviderError.
func (e *ProviderError) Unwrap() error {
	return ErrProviderError
}

// Details returns the decoded JSON body, or the raw text if it is not JSON.
func (e *ProviderError) Details() any {
	var v any
	if err := json.Unmarshal(e.Body, &v); err == nil {
		return v
	}
	return string(e.Body)
}

// WebhookEvent represents a normalized webhook event from the billing provider.
type WebhookEvent struct {
	ID                 string     // Provider's event/message ID
	Type               EventType  // Normalized event type
	ProviderEvent      string     // Original provider event name
	SubscriptionID     string     // Provider's subscription ID
	CustomerID         string     // Provider's customer ID
	CompanyID          uuid.UUID  // From checkout metadata
	ProductID          string     // The product/price they subscribed to
	Status             string     // Provider subscription status
	CurrentPeriodStart *time.Time // Provider billing window
	CurrentPeriodEnd   *time.Time
	TrialEnd           *time.Time
	Raw                map[string]any // Full webhook data
}

// EventType represents the normalized billing event type.
// Each provider implementation maps their specific events to these types.
type EventType string

const (
	EventSubscriptionCreated     EventType = "subscription.created"
	EventSubscriptionUpdated     EventType = "subscription.updated"
	EventSubscriptionRenewed     EventType = "subscription.renewed"
	EventSubscriptionReactivated EventType = "subscription.reactivated"
	EventSubscriptionCanceled    EventType = "subscription.canceled"
	EventPaymentFailed           EventType = "subscription.payment_failed"
	EventTrialWillEnd            EventType = "subscription.trial_will_end"
)

// ProductCatalog maps provider product IDs to plans.
type ProductCatalog map[string]Plan

// Resolve returns the plan sold under productID.
func (c ProductCatalog) Resolve(productID string) (Plan, error) {
	if productID == "" {
		return "", ErrMissingProductID
	}
	plan, ok := c[productID]
	if !ok {
		return "", ErrUnknownProduct
	}
	return plan, nil
}

package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/metrics"
)

const paddleProviderName = "paddle"

// PaddleConfig holds configuration for Paddle billing provider.
type PaddleConfig struct {
	APIKey        string   `env:"PADDLE_API_KEY"`
	WebhookSecret string   `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string   `env:"PADDLE_ENVIRONMENT" envDefault:"sandbox"`
	ProPriceIDs   []string `env:"PADDLE_PRO_PRICE_IDS" envSeparator:","`
}

// Catalog maps the configured price IDs to plans.
func (c PaddleConfig) Catalog() ProductCatalog {
	catalog := ProductCatalog{}
	for _, id := range c.ProPriceIDs {
		catalog[id] = PlanPro
	}
	return catalog
}

// PaddleProvider implements BillingProvider for Paddle.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox", "":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, config.Environment)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
	}, nil
}

func (p *PaddleProvider) Name() string { return paddleProviderName }

// CreateCheckoutLink creates a transaction and returns its hosted checkout URL.
// Paddle has a single checkout flow, so both modes behave the same.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (link *CheckoutLink, err error) {
	if req.ProductID == "" {
		return nil, ErrMissingProductID
	}
	if req.CompanyID == uuid.Nil {
		return nil, ErrMissingCompanyID
	}

	start := time.Now()
	defer func() { metrics.ObserveExternal(paddleProviderName, "checkout", start, err) }()

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.ProductID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"companyId": req.CompanyID.String(),
		},
	}
	if req.Email != "" {
		transactionReq.CustomData["email"] = req.Email
	}
	if req.ReturnURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.ReturnURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, errors.Join(ErrProviderError, err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil || *transaction.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// GetCustomerPortalLink returns a link to Paddle's customer portal.
func (p *PaddleProvider) GetCustomerPortalLink(ctx context.Context, sub *Subscription) (link *PortalLink, err error) {
	if sub == nil || sub.ProviderCustomerID == "" {
		return nil, ErrMissingProviderCustomerID
	}

	start := time.Now()
	defer func() { metrics.ObserveExternal(paddleProviderName, "portal", start, err) }()

	portalReq := &paddle.CreateCustomerPortalSessionRequest{
		CustomerID: sub.ProviderCustomerID,
	}
	if sub.ProviderSubID != "" {
		portalReq.SubscriptionIDs = []string{sub.ProviderSubID}
	}

	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, portalReq)
	if err != nil {
		return nil, errors.Join(ErrProviderError, err)
	}

	link = &PortalLink{
		URL:       session.URLs.General.Overview,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	for _, subURL := range session.URLs.Subscriptions {
		if subURL.ID == sub.ProviderSubID {
			link.CancelURL = subURL.CancelSubscription
			link.UpdatePaymentURL = subURL.UpdateSubscriptionPaymentMethod
			break
		}
	}

	if link.URL == "" {
		return nil, ErrNoPortalURL
	}
	return link, nil
}

type paddleSubscriptionData struct {
	ID             string         `json:"id"`
	SubscriptionID string         `json:"subscription_id"`
	Status         string         `json:"status"`
	CustomerID     string         `json:"customer_id"`
	CustomData     map[string]any `json:"custom_data"`
	Items          []struct {
		PriceID string `json:"price_id"`
		Price   struct {
			ID string `json:"id"`
		} `json:"price"`
		TrialDates *struct {
			EndsAt *time.Time `json:"ends_at"`
		} `json:"trial_dates"`
	} `json:"items"`
	CurrentBillingPeriod *struct {
		StartsAt *time.Time `json:"starts_at"`
		EndsAt   *time.Time `json:"ends_at"`
	} `json:"current_billing_period"`
}

// ParseWebhook validates the Paddle-Signature header and parses the payload.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, header http.Header) (*WebhookEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", header.Get("Paddle-Signature"))

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	var paddleEvent struct {
		EventID   string          `json:"event_id"`
		EventType string          `json:"event_type"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}

	var raw map[string]any
	_ = json.Unmarshal(paddleEvent.Data, &raw)

	event := &WebhookEvent{
		ID:            paddleEvent.EventID,
		Type:          mapPaddleEventType(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
		Raw:           raw,
	}

	var data paddleSubscriptionData
	if err := json.Unmarshal(paddleEvent.Data, &data); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}

	event.SubscriptionID = data.ID
	if strings.HasPrefix(paddleEvent.EventType, "transaction.") {
		event.SubscriptionID = data.SubscriptionID
	}
	event.Status = data.Status
	event.CustomerID = data.CustomerID

	if len(data.Items) > 0 {
		event.ProductID = data.Items[0].Price.ID
		if event.ProductID == "" {
			event.ProductID = data.Items[0].PriceID
		}
		if td := data.Items[0].TrialDates; td != nil {
			event.TrialEnd = td.EndsAt
		}
	}
	if data.CurrentBillingPeriod != nil {
		event.CurrentPeriodStart = data.CurrentBillingPeriod.StartsAt
		event.CurrentPeriodEnd = data.CurrentBillingPeriod.EndsAt
	}
	if id, ok := data.CustomData["companyId"].(string); ok {
		companyID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid companyId custom data", ErrInvalidWebhookPayload)
		}
		event.CompanyID = companyID
	}

	return event, nil
}

// mapPaddleEventType maps Paddle event types to internal EventType.
func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "subscription.created", "subscription.activated":
		return EventSubscriptionCreated
	case "subscription.updated":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionCanceled
	case "subscription.resumed":
		return EventSubscriptionReactivated
	case "subscription.past_due", "transaction.payment_failed":
		return EventPaymentFailed
	default:
		// Return the original event as EventType for unmapped events
		return EventType(paddleEvent)
	}
}

package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/metrics"
	"github.com/dmitrymomot/upvote/pkg/webhook"
)

const (
	dodoTestURL = "https://test.dodopayments.com"
	dodoLiveURL = "https://live.dodopayments.com"

	dodoProviderName = "dodo"
)

// DodoConfig holds configuration for the Dodo Payments billing provider.
type DodoConfig struct {
	APIKey              string        `env:"DODO_API_KEY"`
	WebhookSecret       string        `env:"DODO_WEBHOOK_SECRET"`
	Environment         string        `env:"DODO_ENVIRONMENT" envDefault:"test"`
	BaseURL             string        `env:"DODO_BASE_URL"`
	ProMonthlyProductID string        `env:"DODO_PRO_MONTHLY_PRODUCT_ID"`
	ProAnnualProductID  string        `env:"DODO_PRO_ANNUAL_PRODUCT_ID"`
	Timeout             time.Duration `env:"DODO_TIMEOUT" envDefault:"15s"`
}

// Catalog maps the configured product IDs to plans.
func (c DodoConfig) Catalog() ProductCatalog {
	catalog := ProductCatalog{}
	if c.ProMonthlyProductID != "" {
		catalog[c.ProMonthlyProductID] = PlanPro
	}
	if c.ProAnnualProductID != "" {
		catalog[c.ProAnnualProductID] = PlanPro
	}
	return catalog
}

func (c DodoConfig) baseURL() (string, error) {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/"), nil
	}
	switch strings.ToLower(c.Environment) {
	case "test", "":
		return dodoTestURL, nil
	case "live":
		return dodoLiveURL, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, c.Environment)
}

// DodoProvider implements BillingProvider for Dodo Payments.
type DodoProvider struct {
	client   *resty.Client
	verifier *webhook.Verifier
}

// NewDodoProvider creates a new Dodo Payments billing provider.
func NewDodoProvider(cfg DodoConfig) (*DodoProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	baseURL, err := cfg.baseURL()
	if err != nil {
		return nil, err
	}

	verifier, err := webhook.NewVerifier(cfg.WebhookSecret)
	if err != nil {
		return nil, errors.Join(ErrMissingWebhookSecret, err)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &DodoProvider{client: client, verifier: verifier}, nil
}

func (p *DodoProvider) Name() string { return dodoProviderName }

type dodoCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type dodoCartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type dodoBilling struct {
	City    string `json:"city"`
	Country string `json:"country"`
	State   string `json:"state"`
	Street  string `json:"street"`
	Zipcode int    `json:"zipcode"`
}

// Payment links require a billing address up front; the customer edits it on the hosted page.
var dodoPlaceholderBilling = dodoBilling{
	City:    "City",
	Country: "US",
	State:   "State",
	Street:  "Street",
	Zipcode: 10001,
}

type dodoPaymentRequest struct {
	Billing     dodoBilling       `json:"billing"`
	Customer    dodoCustomer      `json:"customer"`
	PaymentLink bool              `json:"payment_link"`
	ProductCart []dodoCartItem    `json:"product_cart"`
	Metadata    map[string]string `json:"metadata"`
	ReturnURL   string            `json:"return_url,omitempty"`
}

type dodoPaymentResponse struct {
	PaymentID   string `json:"payment_id"`
	PaymentLink string `json:"payment_link"`
}

type dodoCheckoutRequest struct {
	ProductCart []dodoCartItem    `json:"product_cart"`
	Customer    dodoCustomer      `json:"customer"`
	Metadata    map[string]string `json:"metadata"`
	ReturnURL   string            `json:"return_url,omitempty"`
}

type dodoCheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreateCheckoutLink creates a payment link (POST /payments) or a hosted
// checkout session (POST /checkouts) depending on req.Mode.
func (p *DodoProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (link *CheckoutLink, err error) {
	if req.ProductID == "" {
		return nil, ErrMissingProductID
	}
	if req.CompanyID == uuid.Nil {
		return nil, ErrMissingCompanyID
	}

	start := time.Now()
	defer func() { metrics.ObserveExternal(dodoProviderName, "checkout_"+string(req.Mode), start, err) }()

	cart := []dodoCartItem{{ProductID: req.ProductID, Quantity: 1}}
	customer := dodoCustomer{Email: req.Email, Name: req.Name}
	metadata := map[string]string{"companyId": req.CompanyID.String()}

	if req.Mode == CheckoutModeSession {
		var out dodoCheckoutResponse
		if err := p.post(ctx, "/checkouts", dodoCheckoutRequest{
			ProductCart: cart,
			Customer:    customer,
			Metadata:    metadata,
			ReturnURL:   req.ReturnURL,
		}, &out); err != nil {
			return nil, err
		}
		if out.CheckoutURL == "" {
			return nil, ErrNoCheckoutURL
		}
		return &CheckoutLink{URL: out.CheckoutURL, SessionID: out.SessionID}, nil
	}

	var out dodoPaymentResponse
	if err := p.post(ctx, "/payments", dodoPaymentRequest{
		Billing:     dodoPlaceholderBilling,
		Customer:    customer,
		PaymentLink: true,
		ProductCart: cart,
		Metadata:    metadata,
		ReturnURL:   req.ReturnURL,
	}, &out); err != nil {
		return nil, err
	}
	if out.PaymentLink == "" {
		return nil, ErrNoCheckoutURL
	}
	return &CheckoutLink{URL: out.PaymentLink, SessionID: out.PaymentID}, nil
}

type dodoPortalResponse struct {
	Link string `json:"link"`
}

// GetCustomerPortalLink creates a customer portal session for the stored Dodo customer.
func (p *DodoProvider) GetCustomerPortalLink(ctx context.Context, sub *Subscription) (link *PortalLink, err error) {
	if sub == nil || sub.ProviderCustomerID == "" {
		return nil, ErrMissingProviderCustomerID
	}

	start := time.Now()
	defer func() { metrics.ObserveExternal(dodoProviderName, "portal", start, err) }()

	var out dodoPortalResponse
	if err := p.post(ctx, "/customers/"+sub.ProviderCustomerID+"/customer-portal/session", nil, &out); err != nil {
		return nil, err
	}
	if out.Link == "" {
		return nil, ErrNoPortalURL
	}

	return &PortalLink{
		URL:       out.Link,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

func (p *DodoProvider) post(ctx context.Context, path string, body, out any) error {
	r := p.client.R().SetContext(ctx).SetResult(out)
	if body != nil {
		r.SetBody(body)
	}

	resp, err := r.Post(path)
	if err != nil {
		return errors.Join(ErrProviderError, err)
	}
	if resp.IsError() {
		return &ProviderError{
			Provider:   dodoProviderName,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}
	}
	return nil
}

type dodoWebhook struct {
	BusinessID string         `json:"business_id"`
	Type       string         `json:"type"`
	Timestamp  string         `json:"timestamp"`
	Data       map[string]any `json:"data"`
}

type dodoSubscriptionData struct {
	SubscriptionID  string            `json:"subscription_id"`
	ProductID       string            `json:"product_id"`
	Status          string            `json:"status"`
	PreviousBilling *time.Time        `json:"previous_billing_date"`
	NextBilling     *time.Time        `json:"next_billing_date"`
	TrialEnd        *time.Time        `json:"trial_period_end"`
	Metadata        map[string]string `json:"metadata"`
	Customer        struct {
		CustomerID string `json:"customer_id"`
		Email      string `json:"email"`
	} `json:"customer"`
}

// ParseWebhook verifies the Standard Webhooks signature and normalizes a subscription event.
func (p *DodoProvider) ParseWebhook(_ context.Context, payload []byte, header http.Header) (*WebhookEvent, error) {
	if err := p.verifier.Verify(payload, header); err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}

	var msg dodoWebhook
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}

	event := &WebhookEvent{
		ID:            header.Get(webhook.HeaderID),
		Type:          EventType(msg.Type),
		ProviderEvent: msg.Type,
		Raw:           msg.Data,
	}

	if !strings.HasPrefix(msg.Type, "subscription.") {
		return event, nil
	}

	// Re-decode data into the typed shape; Raw keeps the full document.
	raw, err := json.Marshal(msg.Data)
	if err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}
	var data dodoSubscriptionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}

	event.SubscriptionID = data.SubscriptionID
	event.ProductID = data.ProductID
	event.Status = data.Status
	event.CustomerID = data.Customer.CustomerID
	event.CurrentPeriodStart = data.PreviousBilling
	event.CurrentPeriodEnd = data.NextBilling
	event.TrialEnd = data.TrialEnd

	if id := data.Metadata["companyId"]; id != "" {
		companyID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid companyId metadata", ErrInvalidWebhookPayload)
		}
		event.CompanyID = companyID
	}

	return event, nil
}

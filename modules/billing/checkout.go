package billing

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/binder"
	"github.com/dmitrymomot/upvote/pkg/subscription"
	accountsvc "github.com/dmitrymomot/upvote/svc/account"
)

// Checkout creates hosted checkouts for the signed-in company.
type Checkout struct {
	cfg          Config
	subs         subscription.Service
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewCheckout(cfg Config, subs subscription.Service, errorHandler handler.ErrorHandler[handler.Context]) *Checkout {
	if subs == nil {
		panic("billing: subscription service is required")
	}
	return &Checkout{cfg: cfg, subs: subs, errorHandler: errorHandler}
}

// Handle serves /api/checkout: a payment link on POST / and a checkout
// session on POST /session.
func (c *Checkout) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", handler.Wrap(status))
	r.Post("/", c.wrap(subscription.CheckoutModePaymentLink))
	r.Post("/session", c.wrap(subscription.CheckoutModeSession))
	return r
}

// Payments serves /api/payments, which only creates payment links.
func (c *Checkout) Payments() http.Handler {
	r := chi.NewRouter()
	r.Get("/", handler.Wrap(status))
	r.Post("/", c.wrap(subscription.CheckoutModePaymentLink))
	return r
}

func status(handler.Context, struct{}) handler.Response {
	return handler.JSON(map[string]string{"status": "API is working"})
}

type CheckoutRequest struct {
	ProductID string `json:"productId"`
}

func (c *Checkout) wrap(mode subscription.CheckoutMode) http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, req CheckoutRequest) handler.Response {
		return c.create(ctx, mode, req)
	},
		handler.WithBinders[handler.Context, CheckoutRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, CheckoutRequest](c.errorHandler),
	)
}

func (c *Checkout) create(ctx handler.Context, mode subscription.CheckoutMode, req CheckoutRequest) handler.Response {
	p, err := accountsvc.PrincipalFromContext(ctx)
	if err != nil {
		return handler.Error(handler.ErrUnauthorized)
	}
	if req.ProductID == "" {
		return handler.Error(errMissingProductID)
	}

	link, err := c.subs.CreateCheckoutLink(ctx, p.CompanyID, subscription.CheckoutOptions{
		Mode:      mode,
		ProductID: req.ProductID,
		Email:     p.Email,
		Name:      p.Name,
		ReturnURL: c.cfg.ReturnURL(),
	})
	if err != nil {
		return checkoutError(err)
	}
	if link == nil || link.URL == "" {
		return handler.Error(errNoCheckoutURL)
	}
	return handler.JSON(link)
}

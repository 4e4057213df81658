package billing

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/subscription"
)

var (
	errMissingProductID     = handler.BadRequest("Missing productId")
	errNotConfigured        = handler.NewHTTPError(http.StatusServiceUnavailable, "Billing is not configured")
	errNoCheckoutURL        = handler.NewHTTPError(http.StatusInternalServerError, "Payment provider did not return a checkout URL")
	errNoPortalURL          = handler.NewHTTPError(http.StatusInternalServerError, "Payment provider did not return a portal URL")
	errNoBillingAccount     = handler.BadRequest("No billing account found for this company")
	errSubscriptionNotFound = handler.NotFound("Subscription not found")
	errInvalidSignature     = handler.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	errInvalidPayload       = handler.BadRequest("Invalid webhook payload")
)

// ProviderErrorResponse is returned when the payment provider rejects a
// checkout. The status code is the provider's.
type ProviderErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

// checkoutError renders provider failures with their upstream status and
// maps the remaining subscription errors to HTTP errors.
func checkoutError(err error) handler.Response {
	var perr *subscription.ProviderError
	if errors.As(err, &perr) {
		status := perr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return handler.JSON(ProviderErrorResponse{
			Error:   "Payment link creation failed",
			Details: perr.Details(),
		}, handler.WithJSONStatus(status))
	}
	return handler.Error(billingError(err))
}

func billingError(err error) error {
	switch {
	case errors.Is(err, subscription.ErrMissingProductID):
		return errMissingProductID
	case errors.Is(err, subscription.ErrProviderNotConfigured):
		return errNotConfigured
	case errors.Is(err, subscription.ErrNoCheckoutURL):
		return errNoCheckoutURL
	case errors.Is(err, subscription.ErrNoPortalURL):
		return errNoPortalURL
	case errors.Is(err, subscription.ErrMissingProviderCustomerID):
		return errNoBillingAccount
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		return errSubscriptionNotFound
	}
	return err
}

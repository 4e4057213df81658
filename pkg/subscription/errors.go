package subscription

import "errors"

var (
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrInvalidStatus        = errors.New("invalid subscription status")
	ErrInvalidResource      = errors.New("invalid subscription resource")
	ErrNoCounterRegistered  = errors.New("no usage counter registered for resource")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUsageNotFound        = errors.New("usage metrics not found")
	ErrUsagePeriodExists    = errors.New("usage metrics already exist for period")
	ErrInvalidPeriod        = errors.New("invalid usage period")
	ErrMissingCompanyID     = errors.New("company ID is required")

	ErrFailedToGetSubscription    = errors.New("failed to get subscription")
	ErrFailedToSaveSubscription   = errors.New("failed to save subscription")
	ErrFailedToGetUsage           = errors.New("failed to get usage metrics")
	ErrFailedToIncrementUsage     = errors.New("failed to increment usage")
	ErrFailedToCountResourceUsage = errors.New("failed to count resource usage")

	// Provider-specific errors
	ErrProviderError              = errors.New("billing provider error")
	ErrProviderNotConfigured      = errors.New("billing provider not configured")
	ErrMissingAPIKey              = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret       = errors.New("billing provider webhook secret is required")
	ErrInvalidProviderEnvironment = errors.New("invalid billing provider environment")
	ErrWebhookVerificationFailed  = errors.New("webhook signature verification failed")
	ErrInvalidWebhookPayload      = errors.New("invalid webhook payload")
	ErrNoCheckoutURL              = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL                = errors.New("no portal URL returned from provider")
	ErrMissingProviderCustomerID  = errors.New("provider customer ID not available")
	ErrMissingProductID           = errors.New("product ID is required")
	ErrUnknownProduct             = errors.New("unknown billing product")
)

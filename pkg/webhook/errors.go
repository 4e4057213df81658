package webhook

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrMissingHeaders       = errors.New("missing webhook signature headers")
	ErrTimestampOutOfRange  = errors.New("webhook timestamp outside tolerance")
	ErrSignatureMismatch    = errors.New("webhook signature mismatch")
)

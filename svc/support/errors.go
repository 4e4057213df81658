package support

import "errors"

var (
	ErrMissingFields        = errors.New("support: email and message are required")
	ErrFailedToCreateTicket = errors.New("support: failed to create ticket")
	ErrFailedToNotify       = errors.New("support: failed to notify staff")
)

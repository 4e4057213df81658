package account

import "errors"

var (
	ErrCompanyNotFound       = errors.New("account: company not found")
	ErrEmailAlreadyExists    = errors.New("account: email already registered")
	ErrInvalidCredentials    = errors.New("account: invalid credentials")
	ErrMissingRequiredFields = errors.New("account: email, password and name are required")
	ErrPasswordTooShort      = errors.New("account: password too short")
	ErrUnauthenticated       = errors.New("account: no authenticated principal")
)

var (
	ErrFailedToCreateCompany = errors.New("account: failed to create company")
	ErrFailedToGetCompany    = errors.New("account: failed to get company")
	ErrFailedToHashPassword  = errors.New("account: failed to hash password")
	ErrFailedToLinkProvider  = errors.New("account: failed to link oauth provider")
	ErrFailedToProvision     = errors.New("account: failed to provision subscription")
)

// OAuth errors
var (
	ErrInvalidState   = errors.New("account: invalid oauth state")
	ErrInvalidCode    = errors.New("account: invalid oauth code")
	ErrNoPrimaryEmail = errors.New("account: no email from provider")
)

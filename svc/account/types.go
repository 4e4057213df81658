package account

import (
	"time"

	"github.com/google/uuid"
)

// Authentication methods recorded on a session.
const (
	MethodPassword    = "password"
	MethodOAuthGoogle = "oauth_google"
)

// Company is a tenant account. PasswordHash is empty for accounts created
// through Google sign-in.
type Company struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"-"`
	GoogleID     string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasPassword reports whether the company can log in with credentials.
func (c *Company) HasPassword() bool {
	return len(c.PasswordHash) > 0
}

// Principal is the authenticated company attached to a request.
type Principal struct {
	CompanyID uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
}

// PrincipalOf returns the principal for c.
func PrincipalOf(c *Company) Principal {
	return Principal{CompanyID: c.ID, Email: c.Email, Name: c.Name}
}

// SignupParams are the credentials signup inputs.
type SignupParams struct {
	Email    string
	Password string
	Name     string
}

// ProviderProfile is the normalized identity returned by an OAuth provider.
type ProviderProfile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}

// Package jwt issues and verifies HS256 session tokens and provides HTTP
// middleware that places verified claims into the request context.
package jwt

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Config configures session tokens.
type Config struct {
	Secret     string        `env:"JWT_SECRET,required"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"upvote"`
	CookieName string        `env:"SESSION_COOKIE" envDefault:"upvote_session"`
}

// Claims are the session claims. Subject holds the company id.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	gojwt.RegisteredClaims
}

// Service signs and verifies session tokens.
type Service struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIssuer sets the iss claim.
func WithIssuer(iss string) Option {
	return func(s *Service) { s.issuer = iss }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service signing with key.
func New(key []byte, opts ...Option) (*Service, error) {
	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}
	s := &Service{
		key:    key,
		ttl:    7 * 24 * time.Hour,
		issuer: "upvote",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromConfig creates a Service from Config.
func NewFromConfig(cfg Config, opts ...Option) (*Service, error) {
	return New([]byte(cfg.Secret), append([]Option{WithTTL(cfg.TTL), WithIssuer(cfg.Issuer)}, opts...)...)
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Generate returns a signed token for subject and its expiry.
func (s *Service) Generate(subject, email, name string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(exp),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, errors.Join(ErrInvalidToken, err)
	}
	return token, exp, nil
}

// Parse verifies token and returns its claims.
func (s *Service) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	// Temporal claims are checked against the injected clock below.
	parser := gojwt.Parser{
		ValidMethods:         []string{gojwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.key, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	now := s.now()
	if !claims.VerifyExpiresAt(now, true) {
		return nil, ErrExpiredToken
	}
	if !claims.VerifyNotBefore(now, false) {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

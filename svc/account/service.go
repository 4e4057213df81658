package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/sanitizer"
	"github.com/dmitrymomot/upvote/pkg/subscription"
)

// MinPasswordLength is the shortest accepted signup password.
const MinPasswordLength = 8

// DefaultBcryptCost matches the cost used for existing password hashes.
const DefaultBcryptCost = 10

// SubscriptionProvisioner creates the initial subscription of a new company.
type SubscriptionProvisioner interface {
	GetOrCreateSubscription(ctx context.Context, companyID uuid.UUID) (*subscription.Subscription, error)
}

// Service manages company accounts and their authentication.
type Service interface {
	Signup(ctx context.Context, params SignupParams) (*Company, error)
	Authenticate(ctx context.Context, email, password string) (*Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	// OAuthLogin finds the company by provider id, then by email (linking
	// the provider id), and creates a new one otherwise.
	OAuthLogin(ctx context.Context, profile ProviderProfile) (*Company, error)
}

type service struct {
	store      Store
	subs       SubscriptionProvisioner
	bcryptCost int
	now        func() time.Time
	log        *slog.Logger
}

// ServiceOption configures the account service.
type ServiceOption func(*service)

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates the account service. Panics if a dependency is nil.
func NewService(store Store, subs SubscriptionProvisioner, opts ...ServiceOption) Service {
	if store == nil {
		panic("account: Store is required")
	}
	if subs == nil {
		panic("account: SubscriptionProvisioner is required")
	}

	s := &service{
		store:      store,
		subs:       subs,
		bcryptCost: DefaultBcryptCost,
		now:        time.Now,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Signup(ctx context.Context, params SignupParams) (*Company, error) {
	email := sanitizer.NormalizeEmail(params.Email)
	name := strings.TrimSpace(params.Name)

	if email == "" || params.Password == "" || name == "" {
		return nil, ErrMissingRequiredFields
	}
	if len(params.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.store.GetCompanyByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrCompanyNotFound) {
		return nil, errors.Join(ErrFailedToGetCompany, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, errors.Join(ErrFailedToHashPassword, err)
	}

	company := &Company{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.create(ctx, company); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "company registered",
		logger.CompanyID(company.ID),
		logger.Event("signup"),
	)
	return company, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*Company, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	company, err := s.store.GetCompanyByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCompanyNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Join(ErrFailedToGetCompany, err)
	}
	if !company.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(company.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return company, nil
}

func (s *service) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	company, err := s.store.GetCompanyByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCompanyNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, errors.Join(ErrFailedToGetCompany, err)
	}
	return company, nil
}

func (s *service) OAuthLogin(ctx context.Context, profile ProviderProfile) (*Company, error) {
	email := sanitizer.NormalizeEmail(profile.Email)
	if email == "" {
		return nil, ErrNoPrimaryEmail
	}

	company, err := s.store.GetCompanyByGoogleID(ctx, profile.ProviderUserID)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, ErrCompanyNotFound) {
		return nil, errors.Join(ErrFailedToGetCompany, err)
	}

	company, err = s.store.GetCompanyByEmail(ctx, email)
	switch {
	case err == nil:
		if company.GoogleID == "" && profile.ProviderUserID != "" {
			if err := s.store.SetGoogleID(ctx, company.ID, profile.ProviderUserID); err != nil {
				return nil, errors.Join(ErrFailedToLinkProvider, err)
			}
			company.GoogleID = profile.ProviderUserID
		}
		return company, nil
	case !errors.Is(err, ErrCompanyNotFound):
		return nil, errors.Join(ErrFailedToGetCompany, err)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	company = &Company{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		GoogleID:  profile.ProviderUserID,
		CreatedAt: s.now(),
	}
	if err := s.create(ctx, company); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "company created from oauth sign-in",
		logger.CompanyID(company.ID),
		logger.Provider("google"),
		logger.Event("oauth_signup"),
	)
	return company, nil
}

// create stores the company and its FREE subscription.
func (s *service) create(ctx context.Context, company *Company) error {
	if err := s.store.CreateCompany(ctx, company); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return ErrEmailAlreadyExists
		}
		return errors.Join(ErrFailedToCreateCompany, err)
	}
	if _, err := s.subs.GetOrCreateSubscription(ctx, company.ID); err != nil {
		// The subscription is created lazily on first access anyway.
		s.log.ErrorContext(ctx, "failed to provision subscription",
			logger.CompanyID(company.ID),
			logger.Error(errors.Join(ErrFailedToProvision, err)),
		)
	}
	return nil
}

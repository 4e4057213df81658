package account_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/upvote/pkg/subscription"
	"github.com/dmitrymomot/upvote/svc/account"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (account.Service, *account.MemoryStore, subscription.Store) {
	t.Helper()

	store := account.NewMemoryStore()
	subStore := subscription.NewMemoryStore()
	subs := subscription.NewService(subStore, subscription.WithClock(func() time.Time { return fixedNow }))
	svc := account.NewService(store, subs,
		account.WithBcryptCost(bcrypt.MinCost),
		account.WithClock(func() time.Time { return fixedNow }),
	)
	return svc, store, subStore
}

func TestSignup(t *testing.T) {
	t.Parallel()

	svc, _, subStore := newService(t)
	ctx := context.Background()

	company, err := svc.Signup(ctx, account.SignupParams{
		Email:    " Owner@Example.com ",
		Password: "password123",
		Name:     "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", company.Email)
	assert.Equal(t, "Acme", company.Name)
	assert.Equal(t, fixedNow, company.CreatedAt)
	assert.True(t, company.HasPassword())
	assert.NoError(t, bcrypt.CompareHashAndPassword(company.PasswordHash, []byte("password123")))

	sub, err := subStore.GetSubscription(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanFree, sub.Plan)
	assert.Equal(t, subscription.StatusActive, sub.Status)
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params account.SignupParams
		err    error
	}{
		{"missing email", account.SignupParams{Password: "password123", Name: "A"}, account.ErrMissingRequiredFields},
		{"missing password", account.SignupParams{Email: "a@b.co", Name: "A"}, account.ErrMissingRequiredFields},
		{"missing name", account.SignupParams{Email: "a@b.co", Password: "password123"}, account.ErrMissingRequiredFields},
		{"short password", account.SignupParams{Email: "a@b.co", Password: "short", Name: "A"}, account.ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Signup(ctx, tt.params)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, account.SignupParams{Email: "dup@example.com", Password: "password123", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, account.SignupParams{Email: "DUP@example.com", Password: "password123", Name: "B"})
	assert.ErrorIs(t, err, account.ErrEmailAlreadyExists)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, account.SignupParams{Email: "owner@example.com", Password: "password123", Name: "Acme"})
	require.NoError(t, err)

	company, err := svc.Authenticate(ctx, "OWNER@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, company.ID)

	_, err = svc.Authenticate(ctx, "owner@example.com", "wrong-password")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestAuthenticate_OAuthOnlyAccount(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.OAuthLogin(ctx, account.ProviderProfile{ProviderUserID: "g-1", Email: "oauth@example.com"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "oauth@example.com", "anything-at-all")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestOAuthLogin(t *testing.T) {
	t.Parallel()

	t.Run("creates company with free subscription", func(t *testing.T) {
		t.Parallel()

		svc, _, subStore := newService(t)
		ctx := context.Background()

		company, err := svc.OAuthLogin(ctx, account.ProviderProfile{
			ProviderUserID: "g-42",
			Email:          "jane@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "jane", company.Name, "name falls back to the email local part")
		assert.Equal(t, "g-42", company.GoogleID)
		assert.False(t, company.HasPassword())

		sub, err := subStore.GetSubscription(ctx, company.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanFree, sub.Plan)
	})

	t.Run("links existing credentials account by email", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newService(t)
		ctx := context.Background()

		created, err := svc.Signup(ctx, account.SignupParams{Email: "owner@example.com", Password: "password123", Name: "Acme"})
		require.NoError(t, err)

		company, err := svc.OAuthLogin(ctx, account.ProviderProfile{ProviderUserID: "g-7", Email: "owner@example.com", Name: "Other"})
		require.NoError(t, err)
		assert.Equal(t, created.ID, company.ID)
		assert.Equal(t, "Acme", company.Name)

		stored, err := store.GetCompanyByGoogleID(ctx, "g-7")
		require.NoError(t, err)
		assert.Equal(t, created.ID, stored.ID)
	})

	t.Run("finds by provider id after email change", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newService(t)
		ctx := context.Background()

		first, err := svc.OAuthLogin(ctx, account.ProviderProfile{ProviderUserID: "g-9", Email: "old@example.com"})
		require.NoError(t, err)

		again, err := svc.OAuthLogin(ctx, account.ProviderProfile{ProviderUserID: "g-9", Email: "new@example.com"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("requires email", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newService(t)
		_, err := svc.OAuthLogin(context.Background(), account.ProviderProfile{ProviderUserID: "g-1"})
		assert.ErrorIs(t, err, account.ErrNoPrimaryEmail)
	})
}

func TestGetCompany(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.GetCompany(ctx, uuid.New())
	assert.ErrorIs(t, err, account.ErrCompanyNotFound)

	created, err := svc.Signup(ctx, account.SignupParams{Email: "a@example.com", Password: "password123", Name: "A"})
	require.NoError(t, err)

	got, err := svc.GetCompany(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	t.Parallel()

	svc, store, _ := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Signup(ctx, account.SignupParams{Email: "race@example.com", Password: "password123", Name: "R"})
		}()
	}
	wg.Wait()

	ids, err := store.ListCompanyIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	_, err := account.PrincipalFromContext(context.Background())
	assert.ErrorIs(t, err, account.ErrUnauthenticated)

	p := account.Principal{CompanyID: uuid.New(), Email: "a@example.com", Name: "A"}
	got, err := account.PrincipalFromContext(account.WithPrincipal(context.Background(), p))
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestNewService_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { account.NewService(nil, nil) })
	assert.Panics(t, func() { account.NewService(account.NewMemoryStore(), nil) })
}

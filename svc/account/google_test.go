package account_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/upvote/svc/account"
)

func newGoogleServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"g-100","email":"jane@example.com","verified_email":true,"name":"Jane"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGoogleAdapter(srv *httptest.Server) account.ProviderAdapter {
	return account.NewGoogleAdapter(account.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/api/auth/google/callback",
		Scopes:       []string{"openid", "email"},
	}, account.WithGoogleEndpoint(oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}, srv.URL+"/userinfo"), account.WithGoogleHTTPClient(srv.Client()))
}

func TestGoogleAdapter_AuthURL(t *testing.T) {
	t.Parallel()

	adapter := account.NewGoogleAdapter(account.GoogleConfig{
		ClientID:    "client-id",
		RedirectURL: "https://app.example.com/api/auth/google/callback",
		Scopes:      []string{"openid", "email"},
	})
	assert.Equal(t, account.ProviderGoogle, adapter.ProviderID())

	raw, err := adapter.AuthURL("state-1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
	assert.Equal(t, "state-1", u.Query().Get("state"))
	assert.Equal(t, "openid email", u.Query().Get("scope"))

	_, err = adapter.AuthURL("")
	assert.ErrorIs(t, err, account.ErrInvalidState)
}

func TestGoogleAdapter_ResolveProfile(t *testing.T) {
	t.Parallel()

	adapter := newGoogleAdapter(newGoogleServer(t))

	profile, err := adapter.ResolveProfile(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, account.ProviderProfile{
		ProviderUserID: "g-100",
		Email:          "jane@example.com",
		EmailVerified:  true,
		Name:           "Jane",
	}, profile)

	_, err = adapter.ResolveProfile(context.Background(), "bad-code")
	assert.ErrorIs(t, err, account.ErrInvalidCode)

	_, err = adapter.ResolveProfile(context.Background(), "")
	assert.ErrorIs(t, err, account.ErrInvalidCode)
}

func TestGoogleConfig_Enabled(t *testing.T) {
	t.Parallel()

	assert.False(t, account.GoogleConfig{}.Enabled())
	assert.True(t, account.GoogleConfig{ClientID: "a", ClientSecret: "b"}.Enabled())
}

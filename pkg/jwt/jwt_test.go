package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/pkg/jwt"
)

func TestService_GenerateParse(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	svc, err := jwt.New([]byte("secret-key"), jwt.WithTTL(time.Hour), jwt.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	token, exp, err := svc.Generate("company-1", "test@example.com", "Test")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "company-1", claims.Subject)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "Test", claims.Name)

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		later, err := jwt.New([]byte("secret-key"), jwt.WithClock(func() time.Time { return now.Add(2 * time.Hour) }))
		require.NoError(t, err)
		_, err = later.Parse(token)
		require.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		other, err := jwt.New([]byte("another-key"), jwt.WithClock(func() time.Time { return now }))
		require.NoError(t, err)
		_, err = other.Parse(token)
		require.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Parse("not.a.token")
		require.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	_, err := jwt.New(nil)
	require.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	svc, err := jwt.New([]byte("k"))
	require.NoError(t, err)
	_, _, err = svc.Generate("", "a@b.c", "")
	require.ErrorIs(t, err, jwt.ErrMissingSubject)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New([]byte("secret-key"))
	require.NoError(t, err)
	token, _, err := svc.Generate("company-1", "test@example.com", "")
	require.NoError(t, err)

	var got *jwt.Claims
	h := jwt.Middleware(svc, jwt.CookieTokenExtractor("upvote_session"), jwt.BearerTokenExtractor)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = jwt.GetClaims(r.Context())
		}),
	)

	t.Run("bearer", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(httptest.NewRecorder(), r)
		require.NotNil(t, got)
		assert.Equal(t, "company-1", got.Subject)
	})

	t.Run("cookie", func(t *testing.T) {
		got = nil
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "upvote_session", Value: token})
		h.ServeHTTP(httptest.NewRecorder(), r)
		require.NotNil(t, got)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		got = nil
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer broken")
		h.ServeHTTP(httptest.NewRecorder(), r)
		assert.Nil(t, got)
	})
}

package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/pkg/cookie"
)

const (
	secretA = "0123456789abcdef0123456789abcdef"
	secretB = "fedcba9876543210fedcba9876543210"
)

func roundTrip(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := cookie.New(nil)
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"", ""})
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"short"})
	assert.ErrorIs(t, err, cookie.ErrSecretTooShort)

	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestManager_SetGet(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{secretA}, cookie.WithSecure(true))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.Set(w, "upvote_session", "token-value", cookie.WithMaxAge(3600)))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	got, err := m.Get(roundTrip(w), "upvote_session")
	require.NoError(t, err)
	assert.Equal(t, "token-value", got)

	_, err = m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "upvote_session")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestManager_Signed(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.SetSigned(w, "state", "abc-123"))

	got, err := m.GetSigned(roundTrip(w), "state")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", got)

	t.Run("tampered value", func(t *testing.T) {
		t.Parallel()
		signed := w.Result().Cookies()[0].Value
		_, sig, _ := strings.Cut(signed, ".")

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "state", Value: "b3RoZXI." + sig})
		_, err := m.GetSigned(r, "state")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "state", Value: "no-separator"})
		_, err := m.GetSigned(r, "state")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})
}

func TestManager_SecretRotation(t *testing.T) {
	t.Parallel()

	old, err := cookie.New([]string{secretA})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	require.NoError(t, old.SetSigned(w, "state", "value"))

	rotated, err := cookie.New([]string{secretB, secretA})
	require.NoError(t, err)
	got, err := rotated.GetSigned(roundTrip(w), "state")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	retired, err := cookie.New([]string{secretB})
	require.NoError(t, err)
	_, err = retired.GetSigned(roundTrip(w), "state")
	assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	m.Delete(w, "upvote_session")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "upvote_session", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	m, err := cookie.NewFromConfig(cookie.Config{}, secretA)
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = cookie.NewFromConfig(cookie.Config{}, "")
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	m, err = cookie.NewFromConfig(cookie.Config{Secrets: " " + secretB + " , ", Secure: true}, "")
	require.NoError(t, err)
	w := httptest.NewRecorder()
	require.NoError(t, m.Set(w, "a", "b"))
	assert.True(t, w.Result().Cookies()[0].Secure)
}

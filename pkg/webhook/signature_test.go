package webhook_test

import (
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/pkg/webhook"
)

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("super-secret-key"))

func TestVerifier_SignAndVerify(t *testing.T) {
	t.Parallel()

	v, err := webhook.NewVerifier(testSecret)
	require.NoError(t, err)

	payload := []byte(`{"type":"subscription.created"}`)
	h := http.Header{}
	v.Sign(payload).Apply(h)

	assert.NoError(t, v.Verify(payload, h))
}

func TestVerifier_RejectsTamperedPayload(t *testing.T) {
	t.Parallel()

	v, err := webhook.NewVerifier(testSecret)
	require.NoError(t, err)

	h := http.Header{}
	v.Sign([]byte(`{"amount":1}`)).Apply(h)

	err = v.Verify([]byte(`{"amount":2}`), h)
	assert.ErrorIs(t, err, webhook.ErrSignatureMismatch)
}

func TestVerifier_RejectsOtherSecret(t *testing.T) {
	t.Parallel()

	signer, err := webhook.NewVerifier("another-secret")
	require.NoError(t, err)
	v, err := webhook.NewVerifier(testSecret)
	require.NoError(t, err)

	payload := []byte(`{}`)
	h := http.Header{}
	signer.Sign(payload).Apply(h)

	assert.ErrorIs(t, v.Verify(payload, h), webhook.ErrSignatureMismatch)
}

func TestVerifier_AcceptsAnyListedSignature(t *testing.T) {
	t.Parallel()

	v, err := webhook.NewVerifier(testSecret)
	require.NoError(t, err)

	payload := []byte(`{"ok":true}`)
	sig := v.Sign(payload)
	sig.Signature = "v1,bm90LXRoaXMtb25l " + sig.Signature

	h := http.Header{}
	sig.Apply(h)
	assert.NoError(t, v.Verify(payload, h))
}

func TestVerifier_Tolerance(t *testing.T) {
	t.Parallel()

	past := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	signer, err := webhook.NewVerifier(testSecret, webhook.WithClock(func() time.Time { return past }))
	require.NoError(t, err)

	payload := []byte(`{}`)
	h := http.Header{}
	signer.Sign(payload).Apply(h)

	late, err := webhook.NewVerifier(testSecret, webhook.WithClock(func() time.Time { return past.Add(10 * time.Minute) }))
	require.NoError(t, err)
	assert.ErrorIs(t, late.Verify(payload, h), webhook.ErrTimestampOutOfRange)

	lenient, err := webhook.NewVerifier(testSecret,
		webhook.WithClock(func() time.Time { return past.Add(10 * time.Minute) }),
		webhook.WithTolerance(0),
	)
	require.NoError(t, err)
	assert.NoError(t, lenient.Verify(payload, h))
}

func TestVerifier_MissingHeaders(t *testing.T) {
	t.Parallel()

	v, err := webhook.NewVerifier(testSecret)
	require.NoError(t, err)

	err = v.Verify([]byte(`{}`), http.Header{})
	assert.ErrorIs(t, err, webhook.ErrMissingHeaders)
}

func TestNewVerifier_InvalidSecret(t *testing.T) {
	t.Parallel()

	_, err := webhook.NewVerifier("")
	assert.ErrorIs(t, err, webhook.ErrInvalidConfiguration)

	_, err = webhook.NewVerifier("whsec_!!!not-base64")
	assert.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
}

// Package webhook signs and verifies webhook payloads using the Standard
// Webhooks scheme (https://www.standardwebhooks.com):
//
//	signature = base64(HMAC-SHA256(secret, id + "." + timestamp + "." + payload))
//
// carried in the webhook-id, webhook-timestamp and webhook-signature headers.
// The signature header may hold several space-separated "v1,<sig>" entries
// so that secrets can be rotated.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"

	secretPrefix     = "whsec_"
	signatureVersion = "v1"

	// DefaultTolerance bounds the age of an accepted message.
	DefaultTolerance = 5 * time.Minute
)

// SignatureHeaders contains the standard webhook signature headers.
type SignatureHeaders struct {
	ID        string
	Timestamp int64
	Signature string
}

// Apply sets the headers on h.
func (s SignatureHeaders) Apply(h http.Header) {
	h.Set(HeaderID, s.ID)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	h.Set(HeaderSignature, s.Signature)
}

// Verifier checks signatures against one secret.
type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithTolerance sets the accepted clock distance. Zero disables the check.
func WithTolerance(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.tolerance = d }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier decodes secret, accepting both "whsec_<base64>" and raw secrets.
func NewVerifier(secret string, opts ...VerifierOption) (*Verifier, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return nil, err
	}
	v := &Verifier{key: key, tolerance: DefaultTolerance, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func decodeSecret(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if !strings.HasPrefix(secret, secretPrefix) {
		return []byte(secret), nil
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not valid base64", ErrInvalidConfiguration)
	}
	return key, nil
}

func (v *Verifier) sign(id string, ts int64, payload []byte) string {
	h := hmac.New(sha256.New, v.key)
	fmt.Fprintf(h, "%s.%d.", id, ts)
	h.Write(payload)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Sign produces headers for payload. Used by tests and local tooling.
func (v *Verifier) Sign(payload []byte) SignatureHeaders {
	id := "msg_" + uuid.NewString()
	ts := v.now().Unix()
	return SignatureHeaders{
		ID:        id,
		Timestamp: ts,
		Signature: signatureVersion + "," + v.sign(id, ts, payload),
	}
}

// Verify validates payload against the signature headers in h.
func (v *Verifier) Verify(payload []byte, h http.Header) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	sig, err := ExtractSignatureHeaders(h)
	if err != nil {
		return err
	}

	if v.tolerance > 0 {
		diff := v.now().Sub(time.Unix(sig.Timestamp, 0))
		if diff > v.tolerance || diff < -v.tolerance {
			return ErrTimestampOutOfRange
		}
	}

	expected := []byte(v.sign(sig.ID, sig.Timestamp, payload))
	for entry := range strings.FieldsSeq(sig.Signature) {
		version, value, ok := strings.Cut(entry, ",")
		if !ok || version != signatureVersion {
			continue
		}
		if hmac.Equal(expected, []byte(value)) {
			return nil
		}
	}

	return ErrSignatureMismatch
}

// ExtractSignatureHeaders reads the three signature headers from h.
func ExtractSignatureHeaders(h http.Header) (SignatureHeaders, error) {
	sig := SignatureHeaders{
		ID:        h.Get(HeaderID),
		Signature: h.Get(HeaderSignature),
	}
	ts := h.Get(HeaderTimestamp)
	if sig.ID == "" || sig.Signature == "" || ts == "" {
		return SignatureHeaders{}, ErrMissingHeaders
	}

	var err error
	sig.Timestamp, err = strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return SignatureHeaders{}, fmt.Errorf("%w: invalid timestamp format", ErrMissingHeaders)
	}
	return sig, nil
}

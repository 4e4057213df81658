// Package file publishes static objects, such as the widget loader script,
// to S3-compatible storage or to a local directory served by a CDN.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// Object is a static asset to publish.
type Object struct {
	Key          string
	ContentType  string
	CacheControl string
	Body         []byte
}

// ETag returns the strong validator of the object body.
func (o Object) ETag() string {
	sum := sha256.Sum256(o.Body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// Published describes a stored object.
type Published struct {
	Key  string
	URL  string
	Size int
	ETag string
}

// Publisher stores objects under a public base URL.
type Publisher interface {
	Publish(ctx context.Context, obj Object) (*Published, error)
}

// cleanKey normalizes key and rejects traversal.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path.Clean(key), nil
}

func joinURL(base, key string) string {
	if base == "" {
		return key
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}

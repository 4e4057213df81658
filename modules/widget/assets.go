package widget

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

//go:embed assets/widget.js assets/icon.svg
var assets embed.FS

// LoaderScript returns the embeddable loader script.
func LoaderScript() []byte {
	b, _ := assets.ReadFile("assets/widget.js")
	return b
}

// Icon returns the floating button icon.
func Icon() []byte {
	b, _ := assets.ReadFile("assets/icon.svg")
	return b
}

// assetHandler serves a static asset with a strong ETag and public caching.
func assetHandler(name, contentType string, body []byte, maxAge time.Duration) http.Handler {
	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`
	cacheControl := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", cacheControl)
		w.Header().Set("ETag", etag)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(body))
	})
}

// Package clientip resolves the address of the end user when the server
// runs behind a CDN or reverse proxy.
//
// Forwarding headers are client controlled unless a trusted proxy
// overwrites them, so mount Middleware only behind such a proxy.
package clientip

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// DefaultHeaders are consulted in order before RemoteAddr.
var DefaultHeaders = []string{
	"CF-Connecting-IP", // Cloudflare
	"X-Forwarded-For",  // first valid entry
	"X-Real-IP",        // nginx
}

// GetIP resolves the client address using DefaultHeaders.
func GetIP(r *http.Request) string {
	return Resolve(r, DefaultHeaders)
}

// Resolve returns the first valid address found in headers, then falls back
// to RemoteAddr. The result is normalized and empty when nothing parses.
func Resolve(r *http.Request, headers []string) string {
	for _, h := range headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For carries a list; other headers a single value.
		for candidate := range strings.SplitSeq(v, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}
	return RemoteIP(r)
}

// RemoteIP returns the address of the direct peer.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

type contextKey struct{}

// WithIP stores ip in ctx.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the address stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// Middleware resolves the client address once per request and stores it in
// the request context. Without headers it uses DefaultHeaders.
func Middleware(headers ...string) func(http.Handler) http.Handler {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithIP(r.Context(), Resolve(r, headers))))
		})
	}
}

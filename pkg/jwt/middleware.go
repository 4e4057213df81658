package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc extracts a raw token from a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// Middleware verifies the first token found by extractors and stores its
// claims in the request context. Requests without a valid token pass
// through unchanged; authorization is decided by the handlers.
func Middleware(svc *Service, extractors ...TokenExtractorFunc) func(http.Handler) http.Handler {
	if len(extractors) == 0 {
		extractors = []TokenExtractorFunc{BearerTokenExtractor}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, extract := range extractors {
				token, err := extract(r)
				if err != nil {
					continue
				}
				claims, err := svc.Parse(token)
				if err != nil {
					continue
				}
				ctx := SetClaims(SetToken(r.Context(), token), claims)
				r = r.WithContext(ctx)
				break
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(name string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return "", ErrInvalidToken
		}
		return c.Value, nil
	}
}

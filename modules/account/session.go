package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/cookie"
	"github.com/dmitrymomot/upvote/pkg/jwt"
	accountsvc "github.com/dmitrymomot/upvote/svc/account"
)

// Sessions issues session tokens and resolves them back into principals.
// The token travels in a cookie for the dashboard and as a bearer token for
// API clients.
type Sessions struct {
	tokens     *jwt.Service
	cookies    *cookie.Manager
	cookieName string
}

// NewSessions creates the session helper. Panics if a dependency is nil.
func NewSessions(tokens *jwt.Service, cookies *cookie.Manager, cookieName string) *Sessions {
	if tokens == nil {
		panic("account: jwt service is required")
	}
	if cookies == nil {
		panic("account: cookie manager is required")
	}
	if cookieName == "" {
		cookieName = "upvote_session"
	}
	return &Sessions{tokens: tokens, cookies: cookies, cookieName: cookieName}
}

// Issue signs a token for company and sets the session cookie.
func (s *Sessions) Issue(w http.ResponseWriter, company *accountsvc.Company) (string, time.Time, error) {
	token, exp, err := s.tokens.Generate(company.ID.String(), company.Email, company.Name)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.cookies.Set(w, s.cookieName, token, cookie.WithMaxAge(int(s.tokens.TTL().Seconds()))); err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Clear removes the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	s.cookies.Delete(w, s.cookieName)
}

// Middleware verifies the bearer or cookie token and attaches the principal.
// Anonymous requests pass through; use RequireAuth to reject them.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	attach := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := jwt.GetClaims(r.Context()); ok {
			if id, err := uuid.Parse(claims.Subject); err == nil {
				r = r.WithContext(accountsvc.WithPrincipal(r.Context(), accountsvc.Principal{
					CompanyID: id,
					Email:     claims.Email,
					Name:      claims.Name,
				}))
			}
		}
		next.ServeHTTP(w, r)
	})
	return jwt.Middleware(s.tokens, jwt.BearerTokenExtractor, jwt.CookieTokenExtractor(s.cookieName))(attach)
}

// RequireAuth answers 401 {"error":"Unauthorized"} when no principal is attached.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := accountsvc.PrincipalFromContext(r.Context()); err != nil {
			_ = handler.JSONError(http.StatusUnauthorized, handler.ErrUnauthorized.Message).Render(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession is the typed-handler counterpart of RequireAuth: handlers it
// decorates only run when a principal is attached.
func RequireSession[R any]() handler.Decorator[handler.Context, R] {
	return func(next handler.HandlerFunc[handler.Context, R]) handler.HandlerFunc[handler.Context, R] {
		return func(ctx handler.Context, req R) handler.Response {
			if _, err := accountsvc.PrincipalFromContext(ctx); err != nil {
				return handler.Error(handler.ErrUnauthorized)
			}
			return next(ctx, req)
		}
	}
}

// CurrentPrincipal returns the request principal, or handler.ErrUnauthorized.
func CurrentPrincipal(ctx handler.Context) (accountsvc.Principal, error) {
	p, err := accountsvc.PrincipalFromContext(ctx)
	if errors.Is(err, accountsvc.ErrUnauthenticated) {
		return p, handler.ErrUnauthorized
	}
	return p, err
}

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the auth module.
// Each service is optional and will only be mounted if provided.
type RouterOptions struct {
	Password    Mountable
	GoogleOAuth Mountable
}

// Router creates the /api/auth router.
//
// Example:
//
//	r.Mount("/api/auth", account.Router(account.RouterOptions{
//	    Password:    account.NewPasswordService(accounts, sessions, errHandler),
//	    GoogleOAuth: account.NewGoogleOAuthService(cfg, adapter, accounts, sessions, cookies, ttl, log),
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.GoogleOAuth != nil {
		r.Mount("/google", opts.GoogleOAuth.Handle())
	}
	if opts.Password != nil {
		r.Mount("/", opts.Password.Handle())
	}

	return r
}

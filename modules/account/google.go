package account

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/binder"
	"github.com/dmitrymomot/upvote/pkg/cookie"
	"github.com/dmitrymomot/upvote/pkg/logger"
	accountsvc "github.com/dmitrymomot/upvote/svc/account"
)

// GoogleOAuthService runs the Google sign-in redirect flow.
type GoogleOAuthService struct {
	cfg      Config
	adapter  accountsvc.ProviderAdapter
	accounts accountsvc.Service
	sessions *Sessions
	cookies  *cookie.Manager
	stateTTL time.Duration
	log      *slog.Logger
}

func NewGoogleOAuthService(
	cfg Config,
	adapter accountsvc.ProviderAdapter,
	accounts accountsvc.Service,
	sessions *Sessions,
	cookies *cookie.Manager,
	stateTTL time.Duration,
	log *slog.Logger,
) *GoogleOAuthService {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	return &GoogleOAuthService{
		cfg:      cfg,
		adapter:  adapter,
		accounts: accounts,
		sessions: sessions,
		cookies:  cookies,
		stateTTL: stateTTL,
		log:      log,
	}
}

func (s *GoogleOAuthService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", handler.Wrap(s.start))
	r.Get("/callback", handler.Wrap(s.callback,
		handler.WithBinders[handler.Context, CallbackRequest](binder.Query()),
	))
	return r
}

func (s *GoogleOAuthService) start(ctx handler.Context, _ struct{}) handler.Response {
	state := uuid.NewString()
	authURL, err := s.adapter.AuthURL(state)
	if err != nil {
		return s.fail(ctx, "OAuthSignin", err)
	}
	if err := s.cookies.SetSigned(ctx.ResponseWriter(), s.cfg.StateCookieName, state,
		cookie.WithMaxAge(int(s.stateTTL.Seconds())),
	); err != nil {
		return s.fail(ctx, "OAuthSignin", err)
	}
	return handler.Redirect(authURL)
}

type CallbackRequest struct {
	Code  string `query:"code"`
	State string `query:"state"`
	Error string `query:"error"`
}

func (s *GoogleOAuthService) callback(ctx handler.Context, req CallbackRequest) handler.Response {
	w := ctx.ResponseWriter()

	expected, err := s.cookies.GetSigned(ctx.Request(), s.cfg.StateCookieName)
	s.cookies.Delete(w, s.cfg.StateCookieName)
	if err != nil || req.State == "" || expected != req.State {
		return s.fail(ctx, "OAuthCallback", errors.Join(accountsvc.ErrInvalidState, err))
	}
	if req.Error != "" {
		return s.fail(ctx, "AccessDenied", errors.New(req.Error))
	}

	profile, err := s.adapter.ResolveProfile(ctx, req.Code)
	if err != nil {
		return s.fail(ctx, "OAuthCallback", err)
	}
	company, err := s.accounts.OAuthLogin(ctx, profile)
	if err != nil {
		return s.fail(ctx, "OAuthAccountNotLinked", err)
	}
	if _, _, err := s.sessions.Issue(w, company); err != nil {
		return s.fail(ctx, "OAuthCallback", err)
	}

	s.log.InfoContext(ctx, "oauth login",
		logger.CompanyID(company.ID),
		logger.Provider(s.adapter.ProviderID()),
	)
	return handler.Redirect(s.cfg.AfterLoginPath)
}

// fail sends the browser back to the login page with an error code.
func (s *GoogleOAuthService) fail(ctx handler.Context, code string, err error) handler.Response {
	s.log.WarnContext(ctx, "oauth login failed",
		logger.Provider(s.adapter.ProviderID()),
		logger.Error(err),
		slog.String("code", code),
	)
	return handler.Redirect(s.cfg.LoginPath + "?" + url.Values{"error": {code}}.Encode())
}

package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/binder"
	accountsvc "github.com/dmitrymomot/upvote/svc/account"
)

// PasswordService serves credentials signup, login, logout and the session lookup.
type PasswordService struct {
	accounts     accountsvc.Service
	sessions     *Sessions
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewPasswordService(
	accounts accountsvc.Service,
	sessions *Sessions,
	errorHandler handler.ErrorHandler[handler.Context],
) *PasswordService {
	return &PasswordService{
		accounts:     accounts,
		sessions:     sessions,
		errorHandler: errorHandler,
	}
}

func (s *PasswordService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/signup", handler.Wrap(s.signup,
		handler.WithBinders[handler.Context, SignupRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, SignupRequest](s.errorHandler),
	))
	r.Post("/login", handler.Wrap(s.login,
		handler.WithBinders[handler.Context, LoginRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, LoginRequest](s.errorHandler),
	))
	r.Post("/logout", handler.Wrap(s.logout,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	r.Get("/session", handler.Wrap(s.session,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))

	return r
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type SignupResponse struct {
	Company *accountsvc.Company `json:"company"`
	Message string              `json:"message"`
}

func (s *PasswordService) signup(ctx handler.Context, req SignupRequest) handler.Response {
	company, err := s.accounts.Signup(ctx, accountsvc.SignupParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return handler.Error(signupError(err))
	}
	return handler.Created(SignupResponse{
		Company: company,
		Message: "Company registered successfully",
	})
}

func signupError(err error) error {
	switch {
	case errors.Is(err, accountsvc.ErrMissingRequiredFields):
		return handler.BadRequest("Email, password, and name are required")
	case errors.Is(err, accountsvc.ErrPasswordTooShort):
		return handler.BadRequest("Password must be at least 8 characters")
	case errors.Is(err, accountsvc.ErrEmailAlreadyExists):
		return handler.BadRequest("Email already registered")
	}
	return err
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Company   *accountsvc.Company `json:"company"`
}

func (s *PasswordService) login(ctx handler.Context, req LoginRequest) handler.Response {
	company, err := s.accounts.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accountsvc.ErrInvalidCredentials) {
			return handler.Error(handler.NewHTTPError(http.StatusUnauthorized, "Invalid credentials"))
		}
		return handler.Error(err)
	}

	token, exp, err := s.sessions.Issue(ctx.ResponseWriter(), company)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(LoginResponse{Token: token, ExpiresAt: exp, Company: company})
}

func (s *PasswordService) logout(ctx handler.Context, _ struct{}) handler.Response {
	s.sessions.Clear(ctx.ResponseWriter())
	return handler.JSON(map[string]bool{"success": true})
}

type SessionResponse struct {
	Company accountsvc.Principal `json:"company"`
}

func (s *PasswordService) session(ctx handler.Context, _ struct{}) handler.Response {
	p, err := CurrentPrincipal(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(SessionResponse{Company: p})
}

// Command server runs the UpVote HTTP API together with the embeddable
// widget host.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/modules/account"
	"github.com/dmitrymomot/upvote/modules/billing"
	"github.com/dmitrymomot/upvote/modules/dashboard"
	"github.com/dmitrymomot/upvote/modules/support"
	"github.com/dmitrymomot/upvote/modules/widget"
	"github.com/dmitrymomot/upvote/pkg/clientip"
	"github.com/dmitrymomot/upvote/pkg/config"
	"github.com/dmitrymomot/upvote/pkg/cookie"
	"github.com/dmitrymomot/upvote/pkg/email"
	"github.com/dmitrymomot/upvote/pkg/httpserver"
	"github.com/dmitrymomot/upvote/pkg/jwt"
	"github.com/dmitrymomot/upvote/pkg/limits"
	"github.com/dmitrymomot/upvote/pkg/locker"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/metrics"
	"github.com/dmitrymomot/upvote/pkg/pg"
	"github.com/dmitrymomot/upvote/pkg/ratelimiter"
	"github.com/dmitrymomot/upvote/pkg/redis"
	"github.com/dmitrymomot/upvote/pkg/requestid"
	"github.com/dmitrymomot/upvote/pkg/subscription"
	"github.com/dmitrymomot/upvote/repository"
	accountsvc "github.com/dmitrymomot/upvote/svc/account"
	"github.com/dmitrymomot/upvote/svc/feedback"
	supportsvc "github.com/dmitrymomot/upvote/svc/support"
)

func main() {
	var cfg serverConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Logger,
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg serverConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if !cfg.App.SkipMigrations {
		if err := repository.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	checks := map[string]httpserver.CheckFunc{"postgres": pg.Healthcheck(pool)}

	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		checks["redis"] = redis.Healthcheck(rdb)
	}

	lock, err := newLocker(cfg.App, rdb, log)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := newRateLimiter(cfg.Widget, rdb)
	if err != nil {
		return err
	}
	defer closeLimiter()

	// Stores
	accountStore := repository.NewAccountStore(pool)
	subscriptionStore := repository.NewSubscriptionStore(pool)
	feedbackStore := repository.NewFeedbackStore(pool)
	supportStore := repository.NewSupportStore(pool)

	// Billing
	providers, catalog, err := newBillingProviders(cfg)
	if err != nil {
		return err
	}
	subOpts := []subscription.ServiceOption{
		subscription.WithCounter(subscription.ResourceProjects, feedbackStore.CountApplications),
		subscription.WithProductCatalog(catalog),
		subscription.WithLogger(log.With(logger.Component("subscription"))),
	}
	if len(providers) > 0 {
		subOpts = append(subOpts, subscription.WithProvider(providers[0]))
	}
	subs := subscription.NewService(subscriptionStore, subOpts...)

	// Services
	guard := limits.NewGuard(subs,
		limits.WithLocker(lock),
		limits.WithUpgradeURL(cfg.App.UpgradeURL),
		limits.WithLogger(log.With(logger.Component("limits"))),
	)
	feedbackSvc := feedback.NewService(feedbackStore, guard,
		feedback.WithLogger(log.With(logger.Component("feedback"))),
	)
	accounts := accountsvc.NewService(accountStore, subs,
		accountsvc.WithLogger(log.With(logger.Component("account"))),
	)
	mailer, err := email.New(cfg.Email, log.With(logger.Component("email")))
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}
	tickets := supportsvc.NewService(supportStore, mailer, cfg.Email.SupportEmail,
		supportsvc.WithLogger(log.With(logger.Component("support"))),
	)

	// Sessions
	tokens, err := jwt.NewFromConfig(cfg.JWT)
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	cookies, err := cookie.NewFromConfig(cfg.Cookie, cfg.JWT.Secret)
	if err != nil {
		return fmt.Errorf("cookies: %w", err)
	}
	sessions := account.NewSessions(tokens, cookies, cfg.JWT.CookieName)

	metrics.Register()
	errHandler := handler.NewJSONErrorHandler(log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if cfg.App.TrustProxyHeaders {
		r.Use(clientip.Middleware())
	}
	r.Use(requestid.Middleware)
	r.Use(metrics.Middleware)
	r.Use(sessions.Middleware)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, checks))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	authOpts := account.RouterOptions{
		Password: account.NewPasswordService(accounts, sessions, errHandler),
	}
	if cfg.Google.Enabled() {
		authOpts.GoogleOAuth = account.NewGoogleOAuthService(
			cfg.Auth,
			accountsvc.NewGoogleAdapter(cfg.Google),
			accounts,
			sessions,
			cookies,
			cfg.Google.StateTTL,
			log.With(logger.Component("oauth")),
		)
	}
	r.Mount("/api/auth", account.Router(authOpts))

	r.Mount("/api/dashboard", dashboard.New(cfg.Dashboard, feedbackSvc, subs, errHandler).Handle())

	checkout := billing.NewCheckout(cfg.Billing, subs, errHandler)
	r.Mount("/api/checkout", checkout.Handle())
	r.Mount("/api/payments", checkout.Payments())
	r.Mount("/api/billing", billing.NewManagement(subs, errHandler).Handle())
	r.Mount("/api/webhooks", billing.NewWebhooks(subs, errHandler, log.With(logger.Component("webhooks")), providers...).Handle())

	r.Mount("/api/support", support.NewHandler(tickets, errHandler).Handle())

	r.Mount("/", widget.Router(widget.RouterOptions{
		Config:  cfg.Widget,
		API:     widget.NewAPI(feedbackSvc, errHandler),
		Limiter: limiter,
		Logger:  log.With(logger.Component("widget")),
	}))

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

func newLocker(cfg AppConfig, rdb *goredis.Client, log *slog.Logger) (locker.Locker, error) {
	switch cfg.LockBackend {
	case lockBackendMemory, "":
		return locker.NewMemoryLocker(), nil
	case lockBackendRedis:
		if rdb == nil {
			return nil, errors.New("LOCK_BACKEND=redis requires REDIS_URL")
		}
		return locker.NewRedisLocker(rdb, locker.WithLogger(log.With(logger.Component("locker")))), nil
	default:
		return nil, fmt.Errorf("unknown LOCK_BACKEND %q", cfg.LockBackend)
	}
}

// newRateLimiter shares widget counters through Redis when it is available
// and keeps them in process otherwise.
func newRateLimiter(cfg widget.Config, rdb *goredis.Client) (ratelimiter.RateLimiter, func(), error) {
	if cfg.RateLimit <= 0 {
		return nil, func() {}, nil
	}

	var (
		store   ratelimiter.Store
		cleanup = func() {}
	)
	if rdb != nil {
		store = ratelimiter.NewRedisStore(rdb, "upvote:widget:")
	} else {
		mem := ratelimiter.NewMemoryStore()
		store, cleanup = mem, mem.Close
	}

	limiter, err := ratelimiter.NewBucket(store, ratelimiter.PerMinute(cfg.RateLimit))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("widget rate limiter: %w", err)
	}
	return limiter, cleanup, nil
}

// newBillingProviders builds every configured provider. The one named by
// BILLING_PROVIDER comes first and serves checkouts; all of them receive
// webhooks.
func newBillingProviders(cfg serverConfig) ([]subscription.BillingProvider, subscription.ProductCatalog, error) {
	var (
		primary, secondary []subscription.BillingProvider
		catalog            = subscription.ProductCatalog{}
	)

	if cfg.Dodo.APIKey != "" {
		p, err := subscription.NewDodoProvider(cfg.Dodo)
		if err != nil {
			return nil, nil, fmt.Errorf("dodo: %w", err)
		}
		maps.Copy(catalog, cfg.Dodo.Catalog())
		if cfg.App.BillingProvider == billingProviderDodo {
			primary = append(primary, p)
		} else {
			secondary = append(secondary, p)
		}
	}

	if cfg.Paddle.APIKey != "" {
		p, err := subscription.NewPaddleProvider(cfg.Paddle)
		if err != nil {
			return nil, nil, fmt.Errorf("paddle: %w", err)
		}
		maps.Copy(catalog, cfg.Paddle.Catalog())
		if cfg.App.BillingProvider == billingProviderPaddle {
			primary = append(primary, p)
		} else {
			secondary = append(secondary, p)
		}
	}

	return append(primary, secondary...), catalog, nil
}

package main

import (
	"github.com/dmitrymomot/upvote/modules/account"
	"github.com/dmitrymomot/upvote/modules/billing"
	"github.com/dmitrymomot/upvote/modules/dashboard"
	"github.com/dmitrymomot/upvote/modules/widget"
	"github.com/dmitrymomot/upvote/pkg/cookie"
	"github.com/dmitrymomot/upvote/pkg/email"
	"github.com/dmitrymomot/upvote/pkg/httpserver"
	"github.com/dmitrymomot/upvote/pkg/jwt"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/pg"
	"github.com/dmitrymomot/upvote/pkg/redis"
	"github.com/dmitrymomot/upvote/pkg/subscription"
	accountsvc "github.com/dmitrymomot/upvote/svc/account"
)

// Lock and billing backends selectable through AppConfig.
const (
	lockBackendMemory = "memory"
	lockBackendRedis  = "redis"

	billingProviderDodo   = "dodo"
	billingProviderPaddle = "paddle"
)

// AppConfig holds the settings owned by the server binary itself.
type AppConfig struct {
	UpgradeURL      string `env:"UPGRADE_URL" envDefault:"/pricing"`
	LockBackend     string `env:"LOCK_BACKEND" envDefault:"memory"`
	BillingProvider string `env:"BILLING_PROVIDER" envDefault:"dodo"`
	SkipMigrations  bool   `env:"SKIP_MIGRATIONS" envDefault:"false"`

	// TrustProxyHeaders resolves client IPs from CDN and proxy headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

type serverConfig struct {
	App       AppConfig
	Logger    logger.Config
	HTTP      httpserver.Config
	Postgres  pg.Config
	Redis     redis.Config
	JWT       jwt.Config
	Cookie    cookie.Config
	Email     email.Config
	Google    accountsvc.GoogleConfig
	Auth      account.Config
	Dodo      subscription.DodoConfig
	Paddle    subscription.PaddleConfig
	Widget    widget.Config
	Dashboard dashboard.Config
	Billing   billing.Config
}

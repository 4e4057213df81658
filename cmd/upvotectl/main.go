// Command upvotectl runs maintenance tasks against the UpVote database:
// migrations, demo data, subscription repair, usage rollover and publishing
// the widget loader to a CDN bucket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/upvote/pkg/config"
	"github.com/dmitrymomot/upvote/pkg/file"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/pg"
	"github.com/dmitrymomot/upvote/pkg/subscription"
	"github.com/dmitrymomot/upvote/repository"
)

type ctlConfig struct {
	Logger   logger.Config
	Postgres pg.Config
	S3       file.S3Config
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, app *app, args []string) error
}

var commands = []command{
	{"migrate", "apply pending database migrations", runMigrate},
	{"seed", "create the demo company, application and feedback", runSeed},
	{"fix-subscriptions", "create FREE subscriptions for companies without one", runFixSubscriptions},
	{"reset-usage", "open usage rows for the current period of every company", runResetUsage},
	{"publish-widget", "upload widget.js and icon.svg to S3 or a local directory", runPublishWidget},
}

// app holds shared dependencies. The database pool is opened on first use
// so that commands without a database do not need DATABASE_URL.
type app struct {
	cfg  ctlConfig
	log  *slog.Logger
	pool *pgxpool.Pool
}

func (a *app) db(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	pool, err := pg.Connect(ctx, a.cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.pool = pool
	return pool, nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// subscriptions builds the subscription service over the database stores.
func (a *app) subscriptions(ctx context.Context) (subscription.Service, *repository.AccountStore, error) {
	pool, err := a.db(ctx)
	if err != nil {
		return nil, nil, err
	}
	feedbackStore := repository.NewFeedbackStore(pool)
	subs := subscription.NewService(repository.NewSubscriptionStore(pool),
		subscription.WithCounter(subscription.ResourceProjects, feedbackStore.CountApplications),
		subscription.WithLogger(a.log),
	)
	return subs, repository.NewAccountStore(pool), nil
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	var cfg ctlConfig
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewFromConfig(cfg.Logger, logger.WithAttr(slog.String("cmd", flag.Arg(0))))
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, log: log}
	defer a.close()

	if err := dispatch(ctx, a, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Error("command failed", logger.Error(err))
		a.close()
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, a *app, name string, args []string) error {
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, a, args)
		}
	}
	usage()
	return fmt.Errorf("unknown command %q", name)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: upvotectl <command> [flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", c.name, c.usage)
	}
}

func runMigrate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	pool, err := a.db(ctx)
	if err != nil {
		return err
	}
	return repository.Migrate(ctx, pool, a.cfg.Postgres, a.log)
}

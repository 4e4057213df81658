package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/subscription"
	"github.com/dmitrymomot/upvote/repository"
)

type companyLister interface {
	ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error)
}

type subscriptionReader interface {
	GetSubscription(ctx context.Context, companyID uuid.UUID) (*subscription.Subscription, error)
}

// sweepResult counts the outcome of a pass over every company.
type sweepResult struct {
	Total   int
	Changed int
	Failed  int
}

func runFixSubscriptions(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("fix-subscriptions", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	subs, companies, err := a.subscriptions(ctx)
	if err != nil {
		return err
	}
	res, err := fixSubscriptions(ctx, companies, repository.NewSubscriptionStore(a.pool), subs, a.log)
	if err != nil {
		return err
	}
	a.log.InfoContext(ctx, "subscriptions checked",
		slog.Int("companies", res.Total),
		slog.Int("created", res.Changed),
		slog.Int("failed", res.Failed),
	)
	return nil
}

// fixSubscriptions creates the FREE subscription of every company that has none.
func fixSubscriptions(ctx context.Context, companies companyLister, existing subscriptionReader, subs subscription.Service, log *slog.Logger) (sweepResult, error) {
	ids, err := companies.ListCompanyIDs(ctx)
	if err != nil {
		return sweepResult{}, fmt.Errorf("list companies: %w", err)
	}

	res := sweepResult{Total: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := existing.GetSubscription(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, subscription.ErrSubscriptionNotFound) {
			res.Failed++
			log.ErrorContext(ctx, "load subscription", logger.CompanyID(id), logger.Error(err))
			continue
		}
		if _, err := subs.GetOrCreateSubscription(ctx, id); err != nil {
			res.Failed++
			log.ErrorContext(ctx, "subscription repair failed", logger.CompanyID(id), logger.Error(err))
			continue
		}
		res.Changed++
		log.InfoContext(ctx, "free subscription created", logger.CompanyID(id))
	}
	return res, nil
}

func runResetUsage(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reset-usage", flag.ContinueOnError)
	schedule := fs.String("schedule", "", `cron spec to keep running, e.g. "0 0 1 * *"`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	subs, companies, err := a.subscriptions(ctx)
	if err != nil {
		return err
	}

	job := func() {
		start := time.Now()
		res, err := resetUsage(ctx, companies, subs, a.log)
		if err != nil {
			a.log.ErrorContext(ctx, "usage rollover failed", logger.Error(err))
			return
		}
		a.log.InfoContext(ctx, "usage rollover finished",
			slog.Int("companies", res.Total),
			slog.Int("opened", res.Changed),
			slog.Int("failed", res.Failed),
			logger.Duration(time.Since(start)),
		)
	}

	if *schedule == "" {
		job()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", *schedule, err)
	}
	c.Start()
	a.log.InfoContext(ctx, "usage rollover scheduled", slog.String("schedule", *schedule))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// resetUsage opens the usage row of the current period for every company.
// Companies whose period already has a row are left untouched.
func resetUsage(ctx context.Context, companies companyLister, subs subscription.Service, log *slog.Logger) (sweepResult, error) {
	ids, err := companies.ListCompanyIDs(ctx)
	if err != nil {
		return sweepResult{}, fmt.Errorf("list companies: %w", err)
	}

	res := sweepResult{Total: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sub, err := subs.GetOrCreateSubscription(ctx, id)
		if err != nil {
			res.Failed++
			log.ErrorContext(ctx, "load subscription", logger.CompanyID(id), logger.Error(err))
			continue
		}

		period := subs.CurrentPeriod(sub)
		_, err = subs.ResetUsageForPeriod(ctx, id, period)
		switch {
		case errors.Is(err, subscription.ErrUsagePeriodExists):
		case err != nil:
			res.Failed++
			log.ErrorContext(ctx, "open usage period", logger.CompanyID(id), logger.Error(err))
		default:
			res.Changed++
			log.DebugContext(ctx, "usage period opened",
				logger.CompanyID(id),
				slog.Time("period_start", period.Start),
			)
		}
	}
	return res, nil
}

package limits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/locker"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/metrics"
	"github.com/dmitrymomot/upvote/pkg/subscription"
)

// Guard enforces plan limits before resource creation.
type Guard struct {
	subs       subscription.Service
	locker     locker.Locker
	upgradeURL string
	log        *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithLocker sets the per-company lock used by the creation helpers.
func WithLocker(l locker.Locker) Option {
	return func(g *Guard) {
		if l != nil {
			g.locker = l
		}
	}
}

// WithUpgradeURL overrides the upgrade link carried by limit errors.
func WithUpgradeURL(url string) Option {
	return func(g *Guard) {
		if url != "" {
			g.upgradeURL = url
		}
	}
}

// WithLogger sets the logger used for best-effort usage tracking failures.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGuard creates a Guard. Without WithLocker an in-process locker is used,
// which only serializes requests handled by the same replica.
func NewGuard(subs subscription.Service, opts ...Option) *Guard {
	if subs == nil {
		panic("limits: subscription.Service is required")
	}

	g := &Guard{
		subs:       subs,
		locker:     locker.NewMemoryLocker(),
		upgradeURL: DefaultUpgradeURL,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EnforceProjectLimit returns a *PlanLimitError when the company cannot create another project.
func (g *Guard) EnforceProjectLimit(ctx context.Context, companyID uuid.UUID) error {
	ok, err := g.subs.CanCreateProject(ctx, companyID)
	if err != nil {
		return errors.Join(ErrFailedToCheckLimit, err)
	}
	if ok {
		return nil
	}

	sub, err := g.subs.GetOrCreateSubscription(ctx, companyID)
	if err != nil {
		return errors.Join(ErrFailedToCheckLimit, err)
	}
	limit := subscription.GetPlanConfig(sub.Plan).Limits.Projects

	return g.reject(subscription.ResourceProjects, sub.Plan,
		fmt.Sprintf("You have reached your project limit of %d. Upgrade to Pro for unlimited projects.", limit))
}

// EnforceFeedbackLimit returns a *PlanLimitError when the company has used up this period's feedback.
func (g *Guard) EnforceFeedbackLimit(ctx context.Context, companyID uuid.UUID) error {
	ok, err := g.subs.CanCreateFeedback(ctx, companyID)
	if err != nil {
		return errors.Join(ErrFailedToCheckLimit, err)
	}
	if ok {
		return nil
	}

	usage, err := g.subs.GetCurrentUsage(ctx, companyID)
	if err != nil {
		return errors.Join(ErrFailedToCheckLimit, err)
	}

	return g.reject(subscription.ResourceFeedbacks, usage.Plan,
		fmt.Sprintf("You have used %d/%d feedbacks this month. Upgrade to Pro for unlimited feedback.",
			usage.Feedbacks.Current, usage.Feedbacks.Limit))
}

func (g *Guard) reject(res subscription.Resource, plan subscription.Plan, msg string) *PlanLimitError {
	metrics.LimitRejectionsTotal.WithLabelValues(string(res), string(plan)).Inc()
	return &PlanLimitError{
		Message:     msg,
		LimitType:   res,
		CurrentPlan: plan,
		UpgradeURL:  g.upgradeURL,
	}
}

// CreateProject runs create under the company lock after the project limit check
// and counts the project afterwards.
func (g *Guard) CreateProject(ctx context.Context, companyID uuid.UUID, create func(ctx context.Context) error) error {
	return g.guarded(ctx, companyID, subscription.ResourceProjects, g.EnforceProjectLimit, g.subs.IncrementProjectCount, create)
}

// CreateFeedback runs create under the company lock after the feedback limit check
// and counts the feedback afterwards.
func (g *Guard) CreateFeedback(ctx context.Context, companyID uuid.UUID, create func(ctx context.Context) error) error {
	return g.guarded(ctx, companyID, subscription.ResourceFeedbacks, g.EnforceFeedbackLimit, g.subs.IncrementFeedbackCount, create)
}

func (g *Guard) guarded(
	ctx context.Context,
	companyID uuid.UUID,
	res subscription.Resource,
	enforce func(context.Context, uuid.UUID) error,
	increment func(context.Context, uuid.UUID) error,
	create func(context.Context) error,
) error {
	return locker.WithLock(ctx, g.locker, lockKey(companyID, res), func(ctx context.Context) error {
		if err := enforce(ctx, companyID); err != nil {
			return err
		}
		if err := create(ctx); err != nil {
			return err
		}
		if err := increment(ctx, companyID); err != nil {
			g.log.ErrorContext(ctx, "failed to track usage",
				logger.Component("limits"),
				logger.CompanyID(companyID),
				slog.String("resource", string(res)),
				logger.Error(err),
			)
		}
		return nil
	})
}

func lockKey(companyID uuid.UUID, res subscription.Resource) string {
	return "limits:" + string(res) + ":" + companyID.String()
}

package feedback

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/analytics"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/pkg/metrics"
	"github.com/dmitrymomot/upvote/pkg/sanitizer"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage bounds the widget page number so offsets stay small.
	MaxPage = 10000
)

// CreationGuard runs a creation under the plan limit for the company.
// *limits.Guard implements it.
type CreationGuard interface {
	CreateProject(ctx context.Context, companyID uuid.UUID, create func(ctx context.Context) error) error
	CreateFeedback(ctx context.Context, companyID uuid.UUID, create func(ctx context.Context) error) error
}

// Service covers the dashboard and widget operations on applications,
// feedback and votes.
type Service interface {
	// Applications, scoped to the owning company
	CreateApplication(ctx context.Context, companyID uuid.UUID, name string) (*Application, error)
	ListApplications(ctx context.Context, companyID uuid.UUID) ([]Application, error)
	GetApplication(ctx context.Context, companyID, id uuid.UUID) (*Application, error)
	RenameApplication(ctx context.Context, companyID, id uuid.UUID, name string) (*Application, error)
	DeleteApplication(ctx context.Context, companyID, id uuid.UUID) error

	// Widget
	ListWidgetFeedback(ctx context.Context, params WidgetListParams) (*WidgetPage, error)
	SubmitFeedback(ctx context.Context, params SubmitParams) (*WidgetItem, error)
	Vote(ctx context.Context, params VoteParams) (*VoteResult, error)
	RemoveVote(ctx context.Context, params VoteParams) (*VoteResult, error)

	// Dashboard
	ListFeedback(ctx context.Context, scope Scope, status Status, sort Sort) ([]Feedback, error)
	UpdateFeedback(ctx context.Context, companyID uuid.UUID, params UpdateParams) (*Feedback, error)
	Analytics(ctx context.Context, scope Scope) (*analytics.Report, error)
	Users(ctx context.Context, scope Scope) ([]analytics.UserActivity, error)
}

// WidgetListParams selects a page of the public feedback list.
type WidgetListParams struct {
	ApplicationID uuid.UUID
	UserID        string
	Sort          Sort
	Page          int
	Limit         int
}

// SubmitParams are the inputs of a widget feedback submission.
type SubmitParams struct {
	ApplicationID uuid.UUID
	UserID        string
	Title         string
	Description   string
	Tags          []string
}

// VoteParams identify a vote.
type VoteParams struct {
	ApplicationID uuid.UUID
	FeedbackID    uuid.UUID
	UserID        string
	Type          VoteType
}

// UpdateParams change a feedback item's status, reply, or both.
type UpdateParams struct {
	ID     uuid.UUID
	Status *Status
	Reply  *string
}

type service struct {
	store Store
	guard CreationGuard
	now   func() time.Time
	log   *slog.Logger
}

// ServiceOption configures the feedback service.
type ServiceOption func(*service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates the feedback service. Panics if a dependency is nil.
func NewService(store Store, guard CreationGuard, opts ...ServiceOption) Service {
	if store == nil {
		panic("feedback: Store is required")
	}
	if guard == nil {
		panic("feedback: CreationGuard is required")
	}

	s := &service{
		store: store,
		guard: guard,
		now:   time.Now,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateApplication(ctx context.Context, companyID uuid.UUID, name string) (*Application, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	app := &Application{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      name,
		CreatedAt: s.now(),
	}
	err := s.guard.CreateProject(ctx, companyID, func(ctx context.Context) error {
		if err := s.store.CreateApplication(ctx, app); err != nil {
			return errors.Join(ErrFailedToCreateApplication, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "application created",
		logger.CompanyID(companyID),
		logger.ApplicationID(app.ID),
	)
	return app, nil
}

func (s *service) ListApplications(ctx context.Context, companyID uuid.UUID) ([]Application, error) {
	return s.store.ListApplications(ctx, companyID)
}

func (s *service) GetApplication(ctx context.Context, companyID, id uuid.UUID) (*Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CompanyID != companyID {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func (s *service) RenameApplication(ctx context.Context, companyID, id uuid.UUID, name string) (*Application, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	if _, err := s.GetApplication(ctx, companyID, id); err != nil {
		return nil, err
	}
	if err := s.store.RenameApplication(ctx, id, name); err != nil {
		return nil, err
	}
	return s.store.GetApplication(ctx, id)
}

func (s *service) DeleteApplication(ctx context.Context, companyID, id uuid.UUID) error {
	if _, err := s.GetApplication(ctx, companyID, id); err != nil {
		return err
	}
	if err := s.store.DeleteApplication(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "application deleted",
		logger.CompanyID(companyID),
		logger.ApplicationID(id),
	)
	return nil
}

func (s *service) ListWidgetFeedback(ctx context.Context, params WidgetListParams) (*WidgetPage, error) {
	if _, err := s.store.GetApplication(ctx, params.ApplicationID); err != nil {
		return nil, err
	}

	page := min(max(params.Page, 1), MaxPage)
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	items, total, err := s.store.ListFeedback(ctx, Query{
		ApplicationIDs: []uuid.UUID{params.ApplicationID},
		Sort:           params.Sort,
		Offset:         (page - 1) * limit,
		Limit:          limit,
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToListFeedback, err)
	}

	votes := map[uuid.UUID]VoteType{}
	if params.UserID != "" && len(items) > 0 {
		ids := make([]uuid.UUID, 0, len(items))
		for _, f := range items {
			ids = append(ids, f.ID)
		}
		if votes, err = s.store.UserVotes(ctx, params.UserID, ids); err != nil {
			return nil, errors.Join(ErrFailedToListFeedback, err)
		}
	}

	out := make([]WidgetItem, 0, len(items))
	for _, f := range items {
		item := WidgetItem{Feedback: f, IsAuthor: params.UserID != "" && f.UserID == params.UserID}
		if vt, ok := votes[f.ID]; ok {
			item.HasVoted = true
			item.UserVoteType = &vt
		}
		out = append(out, item)
	}

	return &WidgetPage{
		Feedback: out,
		Meta: PageMeta{
			Total:   total,
			Page:    page,
			Limit:   limit,
			HasMore: total > page*limit,
		},
	}, nil
}

func (s *service) SubmitFeedback(ctx context.Context, params SubmitParams) (*WidgetItem, error) {
	title := strings.TrimSpace(params.Title)
	userID := strings.TrimSpace(params.UserID)
	if params.ApplicationID == uuid.Nil || userID == "" || title == "" {
		return nil, ErrMissingFields
	}

	app, err := s.store.GetApplication(ctx, params.ApplicationID)
	if err != nil {
		return nil, err
	}

	f := &Feedback{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		UserID:        userID,
		Title:         title,
		Description:   strings.TrimSpace(params.Description),
		Status:        StatusOpen,
		CreatedAt:     s.now(),
		Tags:          sanitizer.CleanStringSlice(params.Tags),
	}
	err = s.guard.CreateFeedback(ctx, app.CompanyID, func(ctx context.Context) error {
		if err := s.store.CreateFeedback(ctx, f); err != nil {
			return errors.Join(ErrFailedToCreateFeedback, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.FeedbackCreatedTotal.Inc()
	s.log.InfoContext(ctx, "feedback submitted",
		logger.CompanyID(app.CompanyID),
		logger.ApplicationID(app.ID),
		logger.FeedbackID(f.ID),
		logger.EndUserID(userID),
	)
	return &WidgetItem{Feedback: *f, IsAuthor: true}, nil
}

func (s *service) Vote(ctx context.Context, params VoteParams) (*VoteResult, error) {
	if err := validateVote(params); err != nil {
		return nil, err
	}
	if params.Type != VoteUp {
		return nil, ErrInvalidVoteType
	}

	err := s.store.UpsertVote(ctx, Vote{
		ApplicationID: params.ApplicationID,
		FeedbackID:    params.FeedbackID,
		UserID:        params.UserID,
		Type:          params.Type,
		CreatedAt:     s.now(),
	})
	if err != nil {
		if errors.Is(err, ErrFeedbackNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, errors.Join(ErrFailedToVote, err)
	}
	metrics.VotesTotal.WithLabelValues("upsert").Inc()
	return s.voteResult(ctx, params.FeedbackID)
}

func (s *service) RemoveVote(ctx context.Context, params VoteParams) (*VoteResult, error) {
	if err := validateVote(params); err != nil {
		return nil, err
	}

	if err := s.store.DeleteVote(ctx, params.ApplicationID, params.FeedbackID, params.UserID); err != nil {
		if errors.Is(err, ErrVoteNotFound) {
			return nil, ErrVoteNotFound
		}
		return nil, errors.Join(ErrFailedToVote, err)
	}
	metrics.VotesTotal.WithLabelValues("delete").Inc()
	return s.voteResult(ctx, params.FeedbackID)
}

func (s *service) voteResult(ctx context.Context, feedbackID uuid.UUID) (*VoteResult, error) {
	n, err := s.store.CountVotes(ctx, feedbackID, VoteUp)
	if err != nil {
		return nil, errors.Join(ErrFailedToVote, err)
	}
	return &VoteResult{Success: true, Upvotes: n, VoteCount: n}, nil
}

func validateVote(p VoteParams) error {
	if p.ApplicationID == uuid.Nil || p.FeedbackID == uuid.Nil || strings.TrimSpace(p.UserID) == "" {
		return ErrMissingVoteFields
	}
	return nil
}

func (s *service) ListFeedback(ctx context.Context, scope Scope, status Status, sort Sort) ([]Feedback, error) {
	appIDs, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	items, _, err := s.store.ListFeedback(ctx, Query{ApplicationIDs: appIDs, Status: status, Sort: sort})
	if err != nil {
		return nil, errors.Join(ErrFailedToListFeedback, err)
	}
	return items, nil
}

func (s *service) UpdateFeedback(ctx context.Context, companyID uuid.UUID, params UpdateParams) (*Feedback, error) {
	if params.ID == uuid.Nil || (params.Status == nil && params.Reply == nil) {
		return nil, ErrNothingToUpdate
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	f, err := s.store.GetFeedback(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetApplication(ctx, companyID, f.ApplicationID); err != nil {
		if errors.Is(err, ErrApplicationNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}

	if params.Status != nil {
		if err := s.store.UpdateFeedbackStatus(ctx, f.ID, *params.Status); err != nil {
			return nil, errors.Join(ErrFailedToUpdateFeedback, err)
		}
	}
	if params.Reply != nil {
		if err := s.store.UpsertReply(ctx, f.ID, *params.Reply, s.now()); err != nil {
			return nil, errors.Join(ErrFailedToUpdateFeedback, err)
		}
	}
	return s.store.GetFeedback(ctx, f.ID)
}

func (s *service) Analytics(ctx context.Context, scope Scope) (*analytics.Report, error) {
	appIDs, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	at := s.now()
	in := analytics.Input{}
	if in.TotalFeedback, err = s.store.CountFeedback(ctx, appIDs); err != nil {
		return nil, errors.Join(ErrFailedToAggregate, err)
	}
	if in.VotesByType, err = s.store.CountVotesByType(ctx, appIDs); err != nil {
		return nil, errors.Join(ErrFailedToAggregate, err)
	}
	authors, voters, err := s.userAggregates(ctx, appIDs)
	if err != nil {
		return nil, err
	}
	in.FeedbackUsers = userIDs(authors)
	in.VoterUsers = userIDs(voters)
	if in.CreatedAt, err = s.store.FeedbackCreatedSince(ctx, appIDs, analytics.TrendStart(at, analytics.TrendDays)); err != nil {
		return nil, errors.Join(ErrFailedToAggregate, err)
	}
	if in.Feedback, err = s.store.TopFeedback(ctx, appIDs, analytics.TopFeedbackLimit); err != nil {
		return nil, errors.Join(ErrFailedToAggregate, err)
	}
	if in.Tags, err = s.store.TagCounts(ctx, appIDs); err != nil {
		return nil, errors.Join(ErrFailedToAggregate, err)
	}

	report := analytics.Build(in, at)
	return &report, nil
}

func (s *service) Users(ctx context.Context, scope Scope) ([]analytics.UserActivity, error) {
	appIDs, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	authors, voters, err := s.userAggregates(ctx, appIDs)
	if err != nil {
		return nil, err
	}
	return analytics.MergeUserActivity(authors, voters), nil
}

func (s *service) userAggregates(ctx context.Context, appIDs []uuid.UUID) (authors, voters []analytics.UserAggregate, err error) {
	if authors, err = s.store.FeedbackAuthors(ctx, appIDs); err != nil {
		return nil, nil, errors.Join(ErrFailedToAggregate, err)
	}
	if voters, err = s.store.Voters(ctx, appIDs); err != nil {
		return nil, nil, errors.Join(ErrFailedToAggregate, err)
	}
	return authors, voters, nil
}

// resolveScope returns the application ids a dashboard read covers.
func (s *service) resolveScope(ctx context.Context, scope Scope) ([]uuid.UUID, error) {
	if scope.ApplicationID != nil {
		app, err := s.GetApplication(ctx, scope.CompanyID, *scope.ApplicationID)
		if err != nil {
			return nil, err
		}
		return []uuid.UUID{app.ID}, nil
	}

	apps, err := s.store.ListApplications(ctx, scope.CompanyID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func userIDs(rows []analytics.UserAggregate) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.UserID)
	}
	return out
}

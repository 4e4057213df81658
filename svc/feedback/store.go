package feedback

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/analytics"
)

// Store persists applications, feedback and votes. Missing rows are
// reported with ErrApplicationNotFound, ErrFeedbackNotFound or ErrVoteNotFound.
type Store interface {
	// Applications
	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*Application, error)
	ListApplications(ctx context.Context, companyID uuid.UUID) ([]Application, error)
	RenameApplication(ctx context.Context, id uuid.UUID, name string) error
	// DeleteApplication removes the application with its feedback, votes, tags and replies.
	DeleteApplication(ctx context.Context, id uuid.UUID) error
	CountApplications(ctx context.Context, companyID uuid.UUID) (int64, error)

	// Feedback
	CreateFeedback(ctx context.Context, f *Feedback) error
	GetFeedback(ctx context.Context, id uuid.UUID) (*Feedback, error)
	ListFeedback(ctx context.Context, q Query) ([]Feedback, int, error)
	UpdateFeedbackStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpsertReply(ctx context.Context, feedbackID uuid.UUID, message string, at time.Time) error

	// Votes
	UpsertVote(ctx context.Context, v Vote) error
	DeleteVote(ctx context.Context, applicationID, feedbackID uuid.UUID, userID string) error
	CountVotes(ctx context.Context, feedbackID uuid.UUID, voteType VoteType) (int, error)
	UserVotes(ctx context.Context, userID string, feedbackIDs []uuid.UUID) (map[uuid.UUID]VoteType, error)

	// Aggregates over the applications in appIDs.
	CountFeedback(ctx context.Context, appIDs []uuid.UUID) (int, error)
	CountVotesByType(ctx context.Context, appIDs []uuid.UUID) (map[string]int, error)
	FeedbackAuthors(ctx context.Context, appIDs []uuid.UUID) ([]analytics.UserAggregate, error)
	Voters(ctx context.Context, appIDs []uuid.UUID) ([]analytics.UserAggregate, error)
	FeedbackCreatedSince(ctx context.Context, appIDs []uuid.UUID, since time.Time) ([]time.Time, error)
	TopFeedback(ctx context.Context, appIDs []uuid.UUID, limit int) ([]analytics.FeedbackVotes, error)
	TagCounts(ctx context.Context, appIDs []uuid.UUID) ([]analytics.TagCount, error)
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/upvote/pkg/analytics"
	"github.com/dmitrymomot/upvote/pkg/pg"
	"github.com/dmitrymomot/upvote/svc/feedback"
)

const applicationSelect = `SELECT a.id, a.company_id, a.name, a.created_at,
	(SELECT count(*) FROM feedback f WHERE f.application_id = a.id) AS feedback_count
	FROM applications a`

const feedbackSelect = `SELECT f.id, f.application_id, f.user_id, f.title, f.description, f.status, f.created_at,
	COALESCE((SELECT array_agg(t.name ORDER BY t.id) FROM feedback_tags t WHERE t.feedback_id = f.id), '{}') AS tags,
	r.message,
	(SELECT count(*) FROM votes v WHERE v.feedback_id = f.id) AS vote_count
	FROM feedback f
	LEFT JOIN feedback_replies r ON r.feedback_id = f.id`

// FeedbackStore is the PostgreSQL feedback.Store.
type FeedbackStore struct {
	db DB
}

// NewFeedbackStore returns a FeedbackStore backed by db.
func NewFeedbackStore(db DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

var _ feedback.Store = (*FeedbackStore)(nil)

func (s *FeedbackStore) CreateApplication(ctx context.Context, app *feedback.Application) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO applications (id, company_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		app.ID, app.CompanyID, app.Name, app.CreatedAt,
	)
	return err
}

func (s *FeedbackStore) GetApplication(ctx context.Context, id uuid.UUID) (*feedback.Application, error) {
	rows, err := s.db.Query(ctx, applicationSelect+` WHERE a.id = $1`, id)
	if err != nil {
		return nil, err
	}
	app, err := pgx.CollectExactlyOneRow(rows, scanApplication)
	if pg.IsNotFoundError(err) {
		return nil, feedback.ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *FeedbackStore) ListApplications(ctx context.Context, companyID uuid.UUID) ([]feedback.Application, error) {
	rows, err := s.db.Query(ctx, applicationSelect+` WHERE a.company_id = $1 ORDER BY a.created_at DESC, a.id`, companyID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanApplication)
}

func (s *FeedbackStore) RenameApplication(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := s.db.Exec(ctx, `UPDATE applications SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return feedback.ErrApplicationNotFound
	}
	return nil
}

// DeleteApplication relies on ON DELETE CASCADE for feedback, tags, replies and votes.
func (s *FeedbackStore) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return feedback.ErrApplicationNotFound
	}
	return nil
}

func (s *FeedbackStore) CountApplications(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM applications WHERE company_id = $1`, companyID).Scan(&n)
	return n, err
}

func (s *FeedbackStore) CreateFeedback(ctx context.Context, f *feedback.Feedback) error {
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO feedback (id, application_id, user_id, title, description, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, f.ApplicationID, f.UserID, f.Title, f.Description, string(f.Status), f.CreatedAt,
		); err != nil {
			return err
		}
		if len(f.Tags) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO feedback_tags (feedback_id, name) SELECT $1, unnest($2::text[])`,
			f.ID, f.Tags,
		)
		return err
	})
	if pg.IsForeignKeyViolationError(err) {
		return feedback.ErrApplicationNotFound
	}
	return err
}

func (s *FeedbackStore) GetFeedback(ctx context.Context, id uuid.UUID) (*feedback.Feedback, error) {
	rows, err := s.db.Query(ctx, feedbackSelect+` WHERE f.id = $1`, id)
	if err != nil {
		return nil, err
	}
	f, err := pgx.CollectExactlyOneRow(rows, scanFeedback)
	if pg.IsNotFoundError(err) {
		return nil, feedback.ErrFeedbackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FeedbackStore) ListFeedback(ctx context.Context, q feedback.Query) ([]feedback.Feedback, int, error) {
	where := ` WHERE f.application_id = ANY($1) AND ($2 = '' OR f.status = $2)`

	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM feedback f`+where, q.ApplicationIDs, string(q.Status),
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := ` ORDER BY f.created_at DESC, f.id`
	if q.Sort == feedback.SortUpvotes {
		order = ` ORDER BY vote_count DESC, f.created_at DESC, f.id`
	}
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}

	rows, err := s.db.Query(ctx,
		feedbackSelect+where+order+` OFFSET $3 LIMIT $4`,
		q.ApplicationIDs, string(q.Status), max(q.Offset, 0), limit,
	)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, scanFeedback)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *FeedbackStore) UpdateFeedbackStatus(ctx context.Context, id uuid.UUID, status feedback.Status) error {
	tag, err := s.db.Exec(ctx, `UPDATE feedback SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return feedback.ErrFeedbackNotFound
	}
	return nil
}

func (s *FeedbackStore) UpsertReply(ctx context.Context, feedbackID uuid.UUID, message string, at time.Time) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO feedback_replies (feedback_id, message, created_at, updated_at) VALUES ($1, $2, $3, $3)
		 ON CONFLICT (feedback_id) DO UPDATE SET message = EXCLUDED.message, updated_at = EXCLUDED.updated_at`,
		feedbackID, message, at,
	)
	if pg.IsForeignKeyViolationError(err) {
		return feedback.ErrFeedbackNotFound
	}
	return err
}

// upsertVoteQuery only inserts when the feedback belongs to the application;
// the original created_at survives a re-vote.
const upsertVoteQuery = `INSERT INTO votes (application_id, feedback_id, user_id, vote_type, created_at)
	SELECT f.application_id, f.id, $3, $4, $5 FROM feedback f WHERE f.id = $2 AND f.application_id = $1
	ON CONFLICT (application_id, feedback_id, user_id) DO UPDATE SET vote_type = EXCLUDED.vote_type`

func (s *FeedbackStore) UpsertVote(ctx context.Context, v feedback.Vote) error {
	tag, err := s.db.Exec(ctx, upsertVoteQuery,
		v.ApplicationID, v.FeedbackID, v.UserID, string(v.Type), v.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return feedback.ErrFeedbackNotFound
	}
	return nil
}

func (s *FeedbackStore) DeleteVote(ctx context.Context, applicationID, feedbackID uuid.UUID, userID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM votes WHERE application_id = $1 AND feedback_id = $2 AND user_id = $3`,
		applicationID, feedbackID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return feedback.ErrVoteNotFound
	}
	return nil
}

func (s *FeedbackStore) CountVotes(ctx context.Context, feedbackID uuid.UUID, voteType feedback.VoteType) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM votes WHERE feedback_id = $1 AND vote_type = $2`,
		feedbackID, string(voteType),
	).Scan(&n)
	return n, err
}

func (s *FeedbackStore) UserVotes(ctx context.Context, userID string, feedbackIDs []uuid.UUID) (map[uuid.UUID]feedback.VoteType, error) {
	out := make(map[uuid.UUID]feedback.VoteType)
	if len(feedbackIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT feedback_id, vote_type FROM votes WHERE user_id = $1 AND feedback_id = ANY($2)`,
		userID, feedbackIDs,
	)
	if err != nil {
		return nil, err
	}
	var (
		id uuid.UUID
		vt string
	)
	_, err = pgx.ForEachRow(rows, []any{&id, &vt}, func() error {
		out[id] = feedback.VoteType(vt)
		return nil
	})
	return out, err
}

func (s *FeedbackStore) CountFeedback(ctx context.Context, appIDs []uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM feedback WHERE application_id = ANY($1)`, appIDs).Scan(&n)
	return n, err
}

func (s *FeedbackStore) CountVotesByType(ctx context.Context, appIDs []uuid.UUID) (map[string]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT vote_type, count(*) FROM votes WHERE application_id = ANY($1) GROUP BY vote_type`, appIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	var (
		vt string
		n  int
	)
	_, err = pgx.ForEachRow(rows, []any{&vt, &n}, func() error {
		out[vt] = n
		return nil
	})
	return out, err
}

func (s *FeedbackStore) FeedbackAuthors(ctx context.Context, appIDs []uuid.UUID) ([]analytics.UserAggregate, error) {
	return s.userAggregates(ctx,
		`SELECT user_id, count(*), max(created_at) FROM feedback
		 WHERE application_id = ANY($1) GROUP BY user_id ORDER BY user_id`, appIDs)
}

func (s *FeedbackStore) Voters(ctx context.Context, appIDs []uuid.UUID) ([]analytics.UserAggregate, error) {
	return s.userAggregates(ctx,
		`SELECT user_id, count(*), max(created_at) FROM votes
		 WHERE application_id = ANY($1) GROUP BY user_id ORDER BY user_id`, appIDs)
}

func (s *FeedbackStore) userAggregates(ctx context.Context, query string, appIDs []uuid.UUID) ([]analytics.UserAggregate, error) {
	rows, err := s.db.Query(ctx, query, appIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.UserAggregate, error) {
		var u analytics.UserAggregate
		err := row.Scan(&u.UserID, &u.Count, &u.Last)
		return u, err
	})
}

func (s *FeedbackStore) FeedbackCreatedSince(ctx context.Context, appIDs []uuid.UUID, since time.Time) ([]time.Time, error) {
	rows, err := s.db.Query(ctx,
		`SELECT created_at FROM feedback WHERE application_id = ANY($1) AND created_at >= $2`, appIDs, since)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[time.Time])
}

func (s *FeedbackStore) TopFeedback(ctx context.Context, appIDs []uuid.UUID, limit int) ([]analytics.FeedbackVotes, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.id, f.title, f.created_at,
			(SELECT count(*) FROM votes v WHERE v.feedback_id = f.id AND v.vote_type = $2) AS upvotes
		 FROM feedback f WHERE f.application_id = ANY($1)
		 ORDER BY upvotes DESC, f.created_at ASC, f.id
		 LIMIT $3`,
		appIDs, string(feedback.VoteUp), limit,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.FeedbackVotes, error) {
		var fv analytics.FeedbackVotes
		err := row.Scan(&fv.ID, &fv.Title, &fv.CreatedAt, &fv.Upvotes)
		return fv, err
	})
}

func (s *FeedbackStore) TagCounts(ctx context.Context, appIDs []uuid.UUID) ([]analytics.TagCount, error) {
	rows, err := s.db.Query(ctx,
		`SELECT t.name, count(*) FROM feedback_tags t
		 JOIN feedback f ON f.id = t.feedback_id
		 WHERE f.application_id = ANY($1) GROUP BY t.name`, appIDs)
	if err != nil {
		return nil, err
	}
	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.TagCount, error) {
		var tc analytics.TagCount
		err := row.Scan(&tc.Name, &tc.Count)
		return tc, err
	})
	if err != nil {
		return nil, err
	}
	return analytics.SortTags(tags), nil
}

func scanApplication(row pgx.CollectableRow) (feedback.Application, error) {
	var app feedback.Application
	err := row.Scan(&app.ID, &app.CompanyID, &app.Name, &app.CreatedAt, &app.FeedbackCount)
	return app, err
}

func scanFeedback(row pgx.CollectableRow) (feedback.Feedback, error) {
	var (
		f      feedback.Feedback
		status string
	)
	err := row.Scan(&f.ID, &f.ApplicationID, &f.UserID, &f.Title, &f.Description, &status,
		&f.CreatedAt, &f.Tags, &f.Reply, &f.VoteCount)
	if err != nil {
		return f, errors.Join(feedback.ErrFailedToListFeedback, err)
	}
	f.Status = feedback.Status(status)
	if f.Tags == nil {
		f.Tags = []string{}
	}
	return f, nil
}

package feedback

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/pkg/analytics"
)

type voteKey struct {
	applicationID uuid.UUID
	feedbackID    uuid.UUID
	userID        string
}

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	apps     map[uuid.UUID]*Application
	feedback map[uuid.UUID]*Feedback
	votes    map[voteKey]Vote
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:     make(map[uuid.UUID]*Application),
		feedback: make(map[uuid.UUID]*Feedback),
		votes:    make(map[voteKey]Vote),
	}
}

func (s *MemoryStore) CreateApplication(_ context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *MemoryStore) GetApplication(_ context.Context, id uuid.UUID) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	cp := *app
	cp.FeedbackCount = s.feedbackCountLocked(id)
	return &cp, nil
}

func (s *MemoryStore) ListApplications(_ context.Context, companyID uuid.UUID) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Application{}
	for _, app := range s.apps {
		if app.CompanyID != companyID {
			continue
		}
		cp := *app
		cp.FeedbackCount = s.feedbackCountLocked(app.ID)
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b Application) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (s *MemoryStore) RenameApplication(_ context.Context, id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return ErrApplicationNotFound
	}
	app.Name = name
	return nil
}

func (s *MemoryStore) DeleteApplication(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[id]; !ok {
		return ErrApplicationNotFound
	}
	delete(s.apps, id)
	for fid, f := range s.feedback {
		if f.ApplicationID == id {
			delete(s.feedback, fid)
		}
	}
	for k := range s.votes {
		if k.applicationID == id {
			delete(s.votes, k)
		}
	}
	return nil
}

func (s *MemoryStore) CountApplications(_ context.Context, companyID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, app := range s.apps {
		if app.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateFeedback(_ context.Context, f *Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[f.ApplicationID]; !ok {
		return ErrApplicationNotFound
	}
	cp := *f
	cp.Tags = slices.Clone(f.Tags)
	cp.VoteCount = 0
	s.feedback[f.ID] = &cp
	return nil
}

func (s *MemoryStore) GetFeedback(_ context.Context, id uuid.UUID) (*Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.feedback[id]
	if !ok {
		return nil, ErrFeedbackNotFound
	}
	out := s.viewLocked(f)
	return &out, nil
}

func (s *MemoryStore) ListFeedback(_ context.Context, q Query) ([]Feedback, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []Feedback{}
	for _, f := range s.feedback {
		if !slices.Contains(q.ApplicationIDs, f.ApplicationID) {
			continue
		}
		if q.Status != "" && f.Status != q.Status {
			continue
		}
		items = append(items, s.viewLocked(f))
	}

	slices.SortFunc(items, func(a, b Feedback) int {
		if q.Sort == SortUpvotes {
			if c := cmp.Compare(b.VoteCount, a.VoteCount); c != 0 {
				return c
			}
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	total := len(items)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return items[start:end], total, nil
}

func (s *MemoryStore) UpdateFeedbackStatus(_ context.Context, id uuid.UUID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.feedback[id]
	if !ok {
		return ErrFeedbackNotFound
	}
	f.Status = status
	return nil
}

func (s *MemoryStore) UpsertReply(_ context.Context, feedbackID uuid.UUID, message string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.feedback[feedbackID]
	if !ok {
		return ErrFeedbackNotFound
	}
	f.Reply = &message
	return nil
}

func (s *MemoryStore) UpsertVote(_ context.Context, v Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.feedback[v.FeedbackID]
	if !ok || f.ApplicationID != v.ApplicationID {
		return ErrFeedbackNotFound
	}
	k := voteKey{v.ApplicationID, v.FeedbackID, v.UserID}
	if existing, ok := s.votes[k]; ok {
		existing.Type = v.Type
		s.votes[k] = existing
		return nil
	}
	s.votes[k] = v
	return nil
}

func (s *MemoryStore) DeleteVote(_ context.Context, applicationID, feedbackID uuid.UUID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := voteKey{applicationID, feedbackID, userID}
	if _, ok := s.votes[k]; !ok {
		return ErrVoteNotFound
	}
	delete(s.votes, k)
	return nil
}

func (s *MemoryStore) CountVotes(_ context.Context, feedbackID uuid.UUID, voteType VoteType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for k, v := range s.votes {
		if k.feedbackID == feedbackID && v.Type == voteType {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) UserVotes(_ context.Context, userID string, feedbackIDs []uuid.UUID) (map[uuid.UUID]VoteType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]VoteType)
	for k, v := range s.votes {
		if k.userID == userID && slices.Contains(feedbackIDs, k.feedbackID) {
			out[k.feedbackID] = v.Type
		}
	}
	return out, nil
}

func (s *MemoryStore) CountFeedback(_ context.Context, appIDs []uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, f := range s.feedback {
		if slices.Contains(appIDs, f.ApplicationID) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountVotesByType(_ context.Context, appIDs []uuid.UUID) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int)
	for k, v := range s.votes {
		if slices.Contains(appIDs, k.applicationID) {
			out[string(v.Type)]++
		}
	}
	return out, nil
}

func (s *MemoryStore) FeedbackAuthors(_ context.Context, appIDs []uuid.UUID) ([]analytics.UserAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := newUserAccumulator()
	for _, f := range s.feedback {
		if slices.Contains(appIDs, f.ApplicationID) {
			acc.add(f.UserID, f.CreatedAt)
		}
	}
	return acc.rows(), nil
}

func (s *MemoryStore) Voters(_ context.Context, appIDs []uuid.UUID) ([]analytics.UserAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := newUserAccumulator()
	for k, v := range s.votes {
		if slices.Contains(appIDs, k.applicationID) {
			acc.add(k.userID, v.CreatedAt)
		}
	}
	return acc.rows(), nil
}

func (s *MemoryStore) FeedbackCreatedSince(_ context.Context, appIDs []uuid.UUID, since time.Time) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []time.Time{}
	for _, f := range s.feedback {
		if slices.Contains(appIDs, f.ApplicationID) && !f.CreatedAt.Before(since) {
			out = append(out, f.CreatedAt)
		}
	}
	return out, nil
}

func (s *MemoryStore) TopFeedback(_ context.Context, appIDs []uuid.UUID, limit int) ([]analytics.FeedbackVotes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []analytics.FeedbackVotes{}
	for _, f := range s.feedback {
		if !slices.Contains(appIDs, f.ApplicationID) {
			continue
		}
		items = append(items, analytics.FeedbackVotes{
			ID:        f.ID,
			Title:     f.Title,
			Upvotes:   s.votesForLocked(f.ID, VoteUp),
			CreatedAt: f.CreatedAt,
		})
	}
	return analytics.TopFeedback(items, limit), nil
}

func (s *MemoryStore) TagCounts(_ context.Context, appIDs []uuid.UUID) ([]analytics.TagCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for _, f := range s.feedback {
		if slices.Contains(appIDs, f.ApplicationID) {
			names = append(names, f.Tags...)
		}
	}
	return analytics.CountTags(names), nil
}

func (s *MemoryStore) viewLocked(f *Feedback) Feedback {
	out := *f
	out.Tags = slices.Clone(f.Tags)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if f.Reply != nil {
		reply := *f.Reply
		out.Reply = &reply
	}
	out.VoteCount = s.votesForLocked(f.ID, "")
	return out
}

// votesForLocked counts votes on a feedback item; an empty type counts all.
func (s *MemoryStore) votesForLocked(feedbackID uuid.UUID, voteType VoteType) int {
	n := 0
	for k, v := range s.votes {
		if k.feedbackID == feedbackID && (voteType == "" || v.Type == voteType) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) feedbackCountLocked(appID uuid.UUID) int {
	n := 0
	for _, f := range s.feedback {
		if f.ApplicationID == appID {
			n++
		}
	}
	return n
}

type userAccumulator struct {
	byUser map[string]*analytics.UserAggregate
	order  []string
}

func newUserAccumulator() *userAccumulator {
	return &userAccumulator{byUser: make(map[string]*analytics.UserAggregate)}
}

func (a *userAccumulator) add(userID string, at time.Time) {
	u, ok := a.byUser[userID]
	if !ok {
		u = &analytics.UserAggregate{UserID: userID}
		a.byUser[userID] = u
		a.order = append(a.order, userID)
	}
	u.Count++
	if u.Last == nil || at.After(*u.Last) {
		t := at
		u.Last = &t
	}
}

func (a *userAccumulator) rows() []analytics.UserAggregate {
	slices.Sort(a.order)
	out := make([]analytics.UserAggregate, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byUser[id])
	}
	return out
}

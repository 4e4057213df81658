package dashboard_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/modules/dashboard"
	"github.com/dmitrymomot/upvote/pkg/analytics"
	"github.com/dmitrymomot/upvote/pkg/limits"
	"github.com/dmitrymomot/upvote/pkg/subscription"
	accountsvc "github.com/dmitrymomot/upvote/svc/account"
	"github.com/dmitrymomot/upvote/svc/feedback"
)

const companyHeader = "X-Test-Company"

type fixture struct {
	router   http.Handler
	feedback feedback.Service
	subs     subscription.Service
}

// withPrincipal stands in for the session middleware.
func withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := uuid.Parse(r.Header.Get(companyHeader)); err == nil {
			r = r.WithContext(accountsvc.WithPrincipal(r.Context(), accountsvc.Principal{CompanyID: id}))
		}
		next.ServeHTTP(w, r)
	})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		at = at.Add(time.Second)
		return at
	}

	store := feedback.NewMemoryStore()
	subs := subscription.NewService(subscription.NewMemoryStore(),
		subscription.WithClock(now),
		subscription.WithCounter(subscription.ResourceProjects, store.CountApplications),
	)
	svc := feedback.NewService(store, limits.NewGuard(subs), feedback.WithClock(now))
	d := dashboard.New(dashboard.Config{PublicURL: "https://upvote.example.com/"}, svc, subs,
		handler.NewJSONErrorHandler(slog.New(slog.DiscardHandler)))

	return &fixture{router: withPrincipal(d.Handle()), feedback: svc, subs: subs}
}

func (f *fixture) do(t *testing.T, company uuid.UUID, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if company != uuid.Nil {
		req.Header.Set(companyHeader, company.String())
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorBody](t, rec).Error
}

func TestUnauthenticated(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, target := range []string{"/applications", "/feedback", "/analytics", "/users", "/usage"} {
		rec := f.do(t, uuid.Nil, http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.Equal(t, "Unauthorized", errorOf(t, rec))
	}
}

func TestApplications(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	owner, stranger := uuid.New(), uuid.New()

	rec := f.do(t, owner, http.MethodPost, "/applications", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Application name is required", errorOf(t, rec))

	rec = f.do(t, owner, http.MethodPost, "/applications", `{"name":" Main App "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	app := decode[dashboard.ApplicationResponse](t, rec).Application
	assert.Equal(t, "Main App", app.Name)
	assert.Equal(t, owner, app.CompanyID)

	t.Run("free plan allows one project", func(t *testing.T) {
		rec := f.do(t, owner, http.MethodPost, "/applications", `{"name":"Second"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
		body := decode[limits.LimitErrorResponse](t, rec)
		assert.Equal(t, subscription.ResourceProjects, body.LimitType)
		assert.Equal(t, subscription.PlanFree, body.CurrentPlan)
		assert.True(t, body.UpgradeRequired)
	})

	t.Run("list is scoped to the company", func(t *testing.T) {
		rec := f.do(t, owner, http.MethodGet, "/applications", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[dashboard.ApplicationsResponse](t, rec).Applications, 1)

		rec = f.do(t, stranger, http.MethodGet, "/applications", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"applications":[]}`, rec.Body.String())
	})

	t.Run("rename", func(t *testing.T) {
		rec := f.do(t, owner, http.MethodPatch, "/applications", `{"name":"x"}`)
		assert.Equal(t, "Application ID is required", errorOf(t, rec))

		rec = f.do(t, stranger, http.MethodPatch, "/applications", `{"id":"`+app.ID.String()+`","name":"Stolen"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Application not found", errorOf(t, rec))

		rec = f.do(t, owner, http.MethodPatch, "/applications", `{"id":"`+app.ID.String()+`","name":"Renamed"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Renamed", decode[dashboard.ApplicationResponse](t, rec).Application.Name)
	})

	t.Run("embed snippet", func(t *testing.T) {
		rec := f.do(t, owner, http.MethodGet, "/applications/"+app.ID.String()+"/embed?position=left&theme=dark", "")
		require.Equal(t, http.StatusOK, rec.Code)
		code := decode[dashboard.EmbedResponse](t, rec).Code
		assert.Contains(t, code, `data-application-id="`+app.ID.String()+`"`)
		assert.Contains(t, code, `data-position="left"`)
		assert.Contains(t, code, `data-theme="dark"`)
		assert.Contains(t, code, `<script src="https://upvote.example.com/widget.js"></script>`)

		rec = f.do(t, stranger, http.MethodGet, "/applications/"+app.ID.String()+"/embed", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.do(t, owner, http.MethodDelete, "/applications", "")
		assert.Equal(t, "Application ID is required", errorOf(t, rec))

		rec = f.do(t, stranger, http.MethodDelete, "/applications?id="+app.ID.String(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = f.do(t, owner, http.MethodDelete, "/applications?id="+app.ID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	})
}

func TestFeedback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	app, err := f.feedback.CreateApplication(ctx, owner, "Main App")
	require.NoError(t, err)

	first, err := f.feedback.SubmitFeedback(ctx, feedback.SubmitParams{ApplicationID: app.ID, UserID: "alice", Title: "Dark mode", Tags: []string{"UI/UX"}})
	require.NoError(t, err)
	second, err := f.feedback.SubmitFeedback(ctx, feedback.SubmitParams{ApplicationID: app.ID, UserID: "bob", Title: "Export"})
	require.NoError(t, err)
	_, err = f.feedback.Vote(ctx, feedback.VoteParams{ApplicationID: app.ID, FeedbackID: first.ID, UserID: "bob", Type: feedback.VoteUp})
	require.NoError(t, err)

	t.Run("list sorts by upvotes", func(t *testing.T) {
		rec := f.do(t, owner, http.MethodGet, "/feedback?sort=upvotes", "")
		require.Equal(t, http.StatusOK, rec.Code)
		items := decode[dashboard.FeedbackListResponse](t, rec).Feedback
		require.Len(t, items, 2)
		assert.Equal(t, first.ID, items[0].ID)
		assert.Equal(t, 1, items[0].VoteCount)

		rec = f.do(t, owner, http.MethodGet, "/feedback", "")
		items = decode[dashboard.FeedbackListResponse](t, rec).Feedback
		assert.Equal(t, second.ID, items[0].ID)
	})

	t.Run("foreign application", func(t *testing.T) {
		rec := f.do(t, uuid.New(), http.MethodGet, "/feedback?applicationId="+app.ID.String(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Application not found", errorOf(t, rec))
	})

	t.Run("update", func(t *testing.T) {
		rec := f.do(t, owner, http.MethodPatch, "/feedback", `{"id":"`+first.ID.String()+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "id and status or reply are required", errorOf(t, rec))

		rec = f.do(t, owner, http.MethodPatch, "/feedback", `{"id":"`+first.ID.String()+`","status":"Shipped"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = f.do(t, uuid.New(), http.MethodPatch, "/feedback", `{"id":"`+first.ID.String()+`","status":"Planned"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Feedback not found", errorOf(t, rec))

		rec = f.do(t, owner, http.MethodPatch, "/feedback", `{"id":"`+first.ID.String()+`","status":"In Progress","reply":"On it"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode[dashboard.FeedbackResponse](t, rec).Feedback
		assert.Equal(t, feedback.StatusInProgress, updated.Status)
		require.NotNil(t, updated.Reply)
		assert.Equal(t, "On it", *updated.Reply)

		rec = f.do(t, owner, http.MethodGet, "/feedback?status=In%20Progress", "")
		assert.Len(t, decode[dashboard.FeedbackListResponse](t, rec).Feedback, 1)
	})

	t.Run("analytics and users", func(t *testing.T) {
		rec := f.do(t, owner, http.MethodGet, "/analytics?applicationId="+app.ID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		report := decode[analytics.Report](t, rec)
		assert.Equal(t, 2, report.TotalFeedback)
		assert.Equal(t, 1, report.Upvotes)
		assert.Equal(t, 2, report.UniqueUsers)

		rec = f.do(t, owner, http.MethodGet, "/users", "")
		require.Equal(t, http.StatusOK, rec.Code)
		users := decode[dashboard.UsersResponse](t, rec).Users
		require.Len(t, users, 2)
		byID := map[string]analytics.UserActivity{}
		for _, u := range users {
			byID[u.UserID] = u
		}
		assert.Equal(t, 1, byID["alice"].FeedbackCount)
		assert.Equal(t, 1, byID["bob"].FeedbackCount)
		assert.Equal(t, 1, byID["bob"].VoteCount)
	})
}

func TestUsage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	owner := uuid.New()
	_, err := f.feedback.CreateApplication(context.Background(), owner, "Main App")
	require.NoError(t, err)

	rec := f.do(t, owner, http.MethodGet, "/usage", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Plan     subscription.Plan          `json:"plan"`
		Projects subscription.ResourceUsage `json:"projects"`
		Status   subscription.Status        `json:"status"`
		Trial    dashboard.TrialInfo        `json:"trial"`
		Features []subscription.Feature     `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, subscription.PlanFree, body.Plan)
	assert.Equal(t, int64(1), body.Projects.Current)
	assert.Equal(t, int64(1), body.Projects.Limit)
	assert.False(t, body.Trial.InTrial)
	assert.Contains(t, body.Features, subscription.FeatureBasicAnalytics)
}

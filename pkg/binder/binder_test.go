package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/pkg/binder"
)

type voteRequest struct {
	ApplicationID string `json:"applicationId"`
	FeedbackID    string `json:"feedbackId"`
	UserID        string `json:"userId"`
	VoteType      string `json:"voteType"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes body and ignores unknown fields", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/api/widget/vote",
			strings.NewReader(`{"applicationId":"a","feedbackId":"f","userId":"u","voteType":"UPVOTE","extra":1}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var req voteRequest
		require.NoError(t, binder.JSON()(r, &req))
		assert.Equal(t, voteRequest{ApplicationID: "a", FeedbackID: "f", UserID: "u", VoteType: "UPVOTE"}, req)
	})

	t.Run("empty body is not applicable", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodDelete, "/api/widget/vote", nil)
		var req voteRequest
		require.ErrorIs(t, binder.JSON()(r, &req), binder.ErrBinderNotApplicable)
	})

	t.Run("wrong content type", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`a=b`))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		var req voteRequest
		require.ErrorIs(t, binder.JSON()(r, &req), binder.ErrUnsupportedMediaType)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"applicationId":`))
		r.Header.Set("Content-Type", "application/json")
		var req voteRequest
		require.ErrorIs(t, binder.JSON()(r, &req), binder.ErrFailedToParseJSON)
	})

	t.Run("trailing data", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{} {}`))
		r.Header.Set("Content-Type", "application/json")
		var req voteRequest
		require.ErrorIs(t, binder.JSON()(r, &req), binder.ErrFailedToParseJSON)
	})
}

type listRequest struct {
	ApplicationID string   `query:"applicationId"`
	Page          int      `query:"page"`
	Limit         int      `query:"limit"`
	Tags          []string `query:"tag"`
	Internal      string   `query:"-"`
	ID            string   `path:"id"`
}

func TestQuery(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/?applicationId=app&page=2&limit=5&tag=Feature,UI&tag=Bug&Internal=x", nil)
	var req listRequest
	require.NoError(t, binder.Query()(r, &req))
	assert.Equal(t, "app", req.ApplicationID)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 5, req.Limit)
	assert.Equal(t, []string{"Feature", "UI", "Bug"}, req.Tags)
	assert.Empty(t, req.Internal)

	bad := httptest.NewRequest(http.MethodGet, "/?page=two", nil)
	require.ErrorIs(t, binder.Query()(bad, &listRequest{}), binder.ErrFailedToParseQuery)
}

func TestPath(t *testing.T) {
	t.Parallel()

	extract := func(_ *http.Request, name string) string {
		if name == "id" {
			return "42"
		}
		return ""
	}
	var req listRequest
	require.NoError(t, binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &req))
	assert.Equal(t, "42", req.ID)

	none := func(*http.Request, string) string { return "" }
	require.ErrorIs(t, binder.Path(none)(httptest.NewRequest(http.MethodGet, "/", nil), &listRequest{}), binder.ErrBinderNotApplicable)
}

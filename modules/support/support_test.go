package support_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/modules/support"
	supportsvc "github.com/dmitrymomot/upvote/svc/support"
)

func newRouter(store *supportsvc.MemoryStore) http.Handler {
	svc := supportsvc.NewService(store, nil, "")
	return support.NewHandler(svc, handler.NewJSONErrorHandler(slog.New(slog.DiscardHandler))).Handle()
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	t.Run("creates ticket", func(t *testing.T) {
		t.Parallel()

		store := supportsvc.NewMemoryStore()
		rec := post(newRouter(store), `{"email":" Jane@Example.com ","message":"Widget does not load"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Message string            `json:"message"`
			Data    supportsvc.Ticket `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Support ticket submitted successfully", resp.Message)
		assert.Equal(t, "jane@example.com", resp.Data.Email)
		assert.Len(t, store.Tickets(), 1)
	})

	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"missing email", `{"message":"hi"}`, http.StatusBadRequest, "Email and message are required"},
		{"blank message", `{"email":"a@b.co","message":"  "}`, http.StatusBadRequest, "Email and message are required"},
		{"empty body", ``, http.StatusBadRequest, "Email and message are required"},
		{"malformed json", `{"email":`, http.StatusBadRequest, "Invalid request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := supportsvc.NewMemoryStore()
			rec := post(newRouter(store), tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.msg+`"}`, rec.Body.String())
			assert.Empty(t, store.Tickets())
		})
	}

	t.Run("invalid email", func(t *testing.T) {
		t.Parallel()

		store := supportsvc.NewMemoryStore()
		rec := post(newRouter(store), `{"email":"not-an-email","message":"hello"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{
			"error": "validation error: email: must be a valid email address",
			"details": {"email": ["must be a valid email address"]}
		}`, rec.Body.String())
		assert.Empty(t, store.Tickets())
	})
}

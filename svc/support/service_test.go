package support_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/pkg/email"
	"github.com/dmitrymomot/upvote/svc/support"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestSubmit(t *testing.T) {
	t.Parallel()

	t.Run("stores ticket and notifies staff", func(t *testing.T) {
		t.Parallel()

		store := support.NewMemoryStore()
		sender := &mockSender{}
		sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
			return p.SendTo == "help@upvote.test" &&
				p.ReplyTo == "customer@example.com" &&
				p.Tag == "support" &&
				p.BodyText == "The widget <b>breaks</b>" &&
				containsAll(p.BodyHTML, "customer@example.com", "&lt;b&gt;breaks&lt;/b&gt;")
		})).Return(nil).Once()

		svc := support.NewService(store, sender, "help@upvote.test", support.WithClock(clock))
		ticket, err := svc.Submit(context.Background(), "  Customer@Example.com ", "The widget <b>breaks</b>\n")
		require.NoError(t, err)

		assert.Equal(t, "customer@example.com", ticket.Email)
		assert.Equal(t, "The widget <b>breaks</b>", ticket.Message)
		assert.Equal(t, fixedNow, ticket.CreatedAt)
		assert.NotEmpty(t, ticket.ID)

		tickets := store.Tickets()
		require.Len(t, tickets, 1)
		assert.Equal(t, ticket.ID, tickets[0].ID)
		sender.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()

		store := support.NewMemoryStore()
		sender := &mockSender{}
		svc := support.NewService(store, sender, "help@upvote.test")

		for _, tc := range []struct{ email, message string }{
			{"", "hello"},
			{"a@example.com", ""},
			{"a@example.com", "   "},
		} {
			_, err := svc.Submit(context.Background(), tc.email, tc.message)
			assert.ErrorIs(t, err, support.ErrMissingFields)
		}
		assert.Empty(t, store.Tickets())
		sender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})

	t.Run("notification failure is not fatal", func(t *testing.T) {
		t.Parallel()

		store := support.NewMemoryStore()
		sender := &mockSender{}
		sender.On("SendEmail", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

		svc := support.NewService(store, sender, "help@upvote.test")
		ticket, err := svc.Submit(context.Background(), "a@example.com", "hello")
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Len(t, store.Tickets(), 1)
		sender.AssertExpectations(t)
	})

	t.Run("no inbox configured", func(t *testing.T) {
		t.Parallel()

		sender := &mockSender{}
		svc := support.NewService(support.NewMemoryStore(), sender, "")
		_, err := svc.Submit(context.Background(), "a@example.com", "hello")
		require.NoError(t, err)
		sender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})
}

func TestNewServicePanicsWithoutStore(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { support.NewService(nil, nil, "") })
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

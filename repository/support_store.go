package repository

import (
	"context"

	"github.com/dmitrymomot/upvote/svc/support"
)

// SupportStore is the PostgreSQL support.Store.
type SupportStore struct {
	db DB
}

// NewSupportStore returns a SupportStore backed by db.
func NewSupportStore(db DB) *SupportStore {
	return &SupportStore{db: db}
}

var _ support.Store = (*SupportStore)(nil)

func (s *SupportStore) CreateTicket(ctx context.Context, t *support.Ticket) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO support_tickets (id, email, message, created_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Email, t.Message, t.CreatedAt,
	)
	return err
}

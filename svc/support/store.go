package support

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ticket is an anonymous contact-form submission.
type Ticket struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists support tickets.
type Store interface {
	CreateTicket(ctx context.Context, t *Ticket) error
}

// MemoryStore keeps tickets in memory.
type MemoryStore struct {
	mu      sync.Mutex
	tickets []Ticket
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) CreateTicket(_ context.Context, t *Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, *t)
	return nil
}

// Tickets returns a copy of the stored tickets in submission order.
func (s *MemoryStore) Tickets() []Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tickets)
}

package account

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store persists companies. Lookups return ErrCompanyNotFound when nothing
// matches; CreateCompany returns ErrEmailAlreadyExists on a duplicate email.
type Store interface {
	CreateCompany(ctx context.Context, c *Company) error
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*Company, error)
	GetCompanyByEmail(ctx context.Context, email string) (*Company, error)
	GetCompanyByGoogleID(ctx context.Context, googleID string) (*Company, error)
	SetGoogleID(ctx context.Context, id uuid.UUID, googleID string) error
	ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error)
}

// MemoryStore is an in-process Store used by tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]*Company
	order     []uuid.UUID
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{companies: make(map[uuid.UUID]*Company)}
}

func (s *MemoryStore) CreateCompany(_ context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.companies {
		if strings.EqualFold(existing.Email, c.Email) {
			return ErrEmailAlreadyExists
		}
	}
	cp := *c
	s.companies[c.ID] = &cp
	s.order = append(s.order, c.ID)
	return nil
}

func (s *MemoryStore) GetCompanyByID(_ context.Context, id uuid.UUID) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) GetCompanyByEmail(_ context.Context, email string) (*Company, error) {
	return s.find(func(c *Company) bool { return strings.EqualFold(c.Email, email) })
}

func (s *MemoryStore) GetCompanyByGoogleID(_ context.Context, googleID string) (*Company, error) {
	if googleID == "" {
		return nil, ErrCompanyNotFound
	}
	return s.find(func(c *Company) bool { return c.GoogleID == googleID })
}

func (s *MemoryStore) SetGoogleID(_ context.Context, id uuid.UUID, googleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.companies[id]
	if !ok {
		return ErrCompanyNotFound
	}
	c.GoogleID = googleID
	return nil
}

func (s *MemoryStore) ListCompanyIDs(context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order), nil
}

func (s *MemoryStore) find(match func(*Company) bool) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.companies {
		if match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrCompanyNotFound
}

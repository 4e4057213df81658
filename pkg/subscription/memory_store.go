package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type usageKey struct {
	companyID   uuid.UUID
	periodStart int64
}

func keyOf(companyID uuid.UUID, periodStart time.Time) usageKey {
	return usageKey{companyID: companyID, periodStart: periodStart.UnixNano()}
}

// MemoryStore is an in-process Store used by tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	subs  map[uuid.UUID]Subscription
	usage map[usageKey]UsageMetrics
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs:  make(map[uuid.UUID]Subscription),
		usage: make(map[usageKey]UsageMetrics),
	}
}

func (m *MemoryStore) GetSubscription(_ context.Context, companyID uuid.UUID) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[companyID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (m *MemoryStore) CreateSubscription(_ context.Context, sub *Subscription) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.subs[sub.CompanyID]; ok {
		return &existing, nil
	}
	m.subs[sub.CompanyID] = *sub
	stored := *sub
	return &stored, nil
}

func (m *MemoryStore) SaveSubscription(_ context.Context, sub *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs[sub.CompanyID] = *sub
	return nil
}

func (m *MemoryStore) GetUsage(_ context.Context, companyID uuid.UUID, periodStart time.Time) (*UsageMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usage[keyOf(companyID, periodStart)]
	if !ok {
		return nil, ErrUsageNotFound
	}
	return &u, nil
}

func (m *MemoryStore) EnsureUsage(_ context.Context, u *UsageMetrics) (*UsageMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(u.CompanyID, u.PeriodStart)
	if existing, ok := m.usage[k]; ok {
		return &existing, nil
	}
	m.usage[k] = *u
	stored := *u
	return &stored, nil
}

func (m *MemoryStore) CreateUsage(_ context.Context, u *UsageMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(u.CompanyID, u.PeriodStart)
	if _, ok := m.usage[k]; ok {
		return ErrUsagePeriodExists
	}
	m.usage[k] = *u
	return nil
}

func (m *MemoryStore) IncrementUsage(_ context.Context, companyID uuid.UUID, periodStart time.Time, res Resource, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(companyID, periodStart)
	u, ok := m.usage[k]
	if !ok {
		return ErrUsageNotFound
	}
	switch res {
	case ResourceProjects:
		u.ProjectCount += delta
	case ResourceFeedbacks:
		u.FeedbackCount += delta
	default:
		return ErrInvalidResource
	}
	u.UpdatedAt = time.Now()
	m.usage[k] = u
	return nil
}

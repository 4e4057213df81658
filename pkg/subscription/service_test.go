package subscription_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/upvote/pkg/subscription"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type projectCounter struct {
	n atomic.Int64
}

func (c *projectCounter) count(context.Context, uuid.UUID) (int64, error) {
	return c.n.Load(), nil
}

func newTestService(t *testing.T, opts ...subscription.ServiceOption) (subscription.Service, *subscription.MemoryStore, *projectCounter) {
	t.Helper()

	store := subscription.NewMemoryStore()
	counter := &projectCounter{}
	opts = append([]subscription.ServiceOption{
		subscription.WithClock(clock),
		subscription.WithCounter(subscription.ResourceProjects, counter.count),
	}, opts...)
	return subscription.NewService(store, opts...), store, counter
}

func TestNewService_PanicsWithoutStore(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { subscription.NewService(nil) })
}

func TestWithCounter_PanicsOnDuplicate(t *testing.T) {
	t.Parallel()

	fn := func(context.Context, uuid.UUID) (int64, error) { return 0, nil }
	assert.Panics(t, func() {
		subscription.NewService(subscription.NewMemoryStore(),
			subscription.WithCounter(subscription.ResourceProjects, fn),
			subscription.WithCounter(subscription.ResourceProjects, fn),
		)
	})
}

func TestGetOrCreateSubscription(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	first, err := svc.GetOrCreateSubscription(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanFree, first.Plan)
	assert.Equal(t, subscription.StatusActive, first.Status)
	assert.Equal(t, companyID, first.CompanyID)

	second, err := svc.GetOrCreateSubscription(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateSubscription_Concurrent(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[uuid.UUID]struct{}{}
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, err := svc.GetOrCreateSubscription(ctx, companyID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[sub.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
}

func TestGetOrCreateSubscription_NilCompany(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.GetOrCreateSubscription(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, subscription.ErrMissingCompanyID)
}

func TestGetOrCreateUsageMetrics(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	usage, err := svc.GetOrCreateUsageMetrics(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), usage.PeriodStart)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC), usage.PeriodEnd)
	assert.Zero(t, usage.FeedbackCount)
	assert.Zero(t, usage.ProjectCount)

	again, err := svc.GetOrCreateUsageMetrics(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, usage.ID, again.ID)
}

func TestCanCreateProject(t *testing.T) {
	t.Parallel()

	t.Run("free plan allows the first project only", func(t *testing.T) {
		t.Parallel()

		svc, _, counter := newTestService(t)
		ctx := context.Background()
		companyID := uuid.New()

		ok, err := svc.CanCreateProject(ctx, companyID)
		require.NoError(t, err)
		assert.True(t, ok)

		counter.n.Store(1)
		ok, err = svc.CanCreateProject(ctx, companyID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("paid plans are unlimited", func(t *testing.T) {
		t.Parallel()

		for _, plan := range []subscription.Plan{subscription.PlanPro, subscription.PlanEnterprise} {
			svc, _, counter := newTestService(t)
			ctx := context.Background()
			companyID := uuid.New()
			counter.n.Store(1000)

			_, err := svc.UpdateSubscriptionPlan(ctx, companyID, plan, subscription.StatusActive, subscription.PlanUpdate{})
			require.NoError(t, err)

			ok, err := svc.CanCreateProject(ctx, companyID)
			require.NoError(t, err)
			assert.True(t, ok, plan)
		}
	})

	t.Run("missing counter", func(t *testing.T) {
		t.Parallel()

		svc := subscription.NewService(subscription.NewMemoryStore(), subscription.WithClock(clock))
		_, err := svc.CanCreateProject(context.Background(), uuid.New())
		assert.ErrorIs(t, err, subscription.ErrNoCounterRegistered)
	})

	t.Run("counter failure", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("db down")
		svc := subscription.NewService(subscription.NewMemoryStore(),
			subscription.WithCounter(subscription.ResourceProjects, func(context.Context, uuid.UUID) (int64, error) {
				return 0, boom
			}),
		)
		_, err := svc.CanCreateProject(context.Background(), uuid.New())
		assert.ErrorIs(t, err, subscription.ErrFailedToCountResourceUsage)
		assert.ErrorIs(t, err, boom)
	})
}

func TestCanCreateFeedback(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	for range 49 {
		require.NoError(t, svc.IncrementFeedbackCount(ctx, companyID))
	}

	ok, err := svc.CanCreateFeedback(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, ok, "49 of 50 used")

	require.NoError(t, svc.IncrementFeedbackCount(ctx, companyID))

	usage, err := svc.GetOrCreateUsageMetrics(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), usage.FeedbackCount)

	ok, err = svc.CanCreateFeedback(ctx, companyID)
	require.NoError(t, err)
	assert.False(t, ok, "50 of 50 used")

	_, err = svc.UpdateSubscriptionPlan(ctx, companyID, subscription.PlanPro, subscription.StatusActive, subscription.PlanUpdate{})
	require.NoError(t, err)

	ok, err = svc.CanCreateFeedback(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFeedbackUsageResetsEachMonth(t *testing.T) {
	t.Parallel()

	var now atomic.Pointer[time.Time]
	march := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	now.Store(&march)

	store := subscription.NewMemoryStore()
	svc := subscription.NewService(store, subscription.WithClock(func() time.Time { return *now.Load() }))
	ctx := context.Background()
	companyID := uuid.New()

	for range 50 {
		require.NoError(t, svc.IncrementFeedbackCount(ctx, companyID))
	}
	ok, err := svc.CanCreateFeedback(ctx, companyID)
	require.NoError(t, err)
	assert.False(t, ok)

	april := time.Date(2024, 4, 1, 0, 0, 1, 0, time.UTC)
	now.Store(&april)

	ok, err = svc.CanCreateFeedback(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIncrementProjectCount(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	require.NoError(t, svc.IncrementProjectCount(ctx, companyID))
	require.NoError(t, svc.IncrementProjectCount(ctx, companyID))

	usage, err := svc.GetOrCreateUsageMetrics(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), usage.ProjectCount)
	assert.Zero(t, usage.FeedbackCount)
}

func TestGetCurrentUsage(t *testing.T) {
	t.Parallel()

	svc, _, counter := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	counter.n.Store(1)
	for range 25 {
		require.NoError(t, svc.IncrementFeedbackCount(ctx, companyID))
	}

	usage, err := svc.GetCurrentUsage(ctx, companyID)
	require.NoError(t, err)

	assert.Equal(t, subscription.PlanFree, usage.Plan)
	assert.Equal(t, subscription.ResourceUsage{Current: 1, Limit: 1, Percentage: 100}, usage.Projects)
	assert.Equal(t, subscription.ResourceUsage{Current: 25, Limit: 50, Percentage: 50}, usage.Feedbacks)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), usage.PeriodStart)

	_, err = svc.UpdateSubscriptionPlan(ctx, companyID, subscription.PlanPro, subscription.StatusActive, subscription.PlanUpdate{})
	require.NoError(t, err)

	usage, err = svc.GetCurrentUsage(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, usage.Projects.IsUnlimited)
	assert.Zero(t, usage.Projects.Percentage)
	assert.True(t, usage.Feedbacks.IsUnlimited)
	assert.Equal(t, int64(subscription.Unlimited), usage.Feedbacks.Limit)
}

func TestHasFeature(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	ok, err := svc.HasFeature(ctx, companyID, subscription.FeatureAdvancedAnalytics)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.UpdateSubscriptionPlan(ctx, companyID, subscription.PlanPro, subscription.StatusTrialing, subscription.PlanUpdate{})
	require.NoError(t, err)

	ok, err = svc.HasFeature(ctx, companyID, subscription.FeatureAdvancedAnalytics)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateSubscriptionPlan(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	start := fixedNow.Add(-24 * time.Hour)
	end := start.AddDate(0, 1, 0)
	trialEnd := fixedNow.Add(14 * 24 * time.Hour)

	sub, err := svc.UpdateSubscriptionPlan(ctx, companyID, subscription.PlanPro, subscription.StatusTrialing, subscription.PlanUpdate{
		ProviderCustomerID: "cus_1",
		ProviderSubID:      "sub_1",
		ProviderProductID:  "prod_1",
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		TrialEnd:           &trialEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanPro, sub.Plan)
	assert.True(t, svc.IsInTrial(sub))
	assert.Equal(t, 14, svc.TrialDaysRemaining(sub))
	assert.Equal(t, subscription.Period{Start: start, End: end}, svc.CurrentPeriod(sub))

	// Zero-valued fields leave stored values in place.
	sub, err = svc.UpdateSubscriptionPlan(ctx, companyID, subscription.PlanPro, subscription.StatusActive, subscription.PlanUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", sub.ProviderCustomerID)
	assert.Equal(t, "sub_1", sub.ProviderSubID)
	assert.Equal(t, &start, sub.CurrentPeriodStart)

	stored, err := store.GetSubscription(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, stored.Status)
	assert.Equal(t, sub.ID, stored.ID)
}

func TestUpdateSubscriptionPlan_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateSubscriptionPlan(ctx, uuid.New(), "GOLD", subscription.StatusActive, subscription.PlanUpdate{})
	assert.ErrorIs(t, err, subscription.ErrPlanNotFound)

	_, err = svc.UpdateSubscriptionPlan(ctx, uuid.New(), subscription.PlanPro, "LIMBO", subscription.PlanUpdate{})
	assert.ErrorIs(t, err, subscription.ErrInvalidStatus)

	_, err = svc.UpdateSubscriptionPlan(ctx, uuid.Nil, subscription.PlanPro, subscription.StatusActive, subscription.PlanUpdate{})
	assert.ErrorIs(t, err, subscription.ErrMissingCompanyID)
}

func TestResetUsageForPeriod(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	period := subscription.CalendarMonth(fixedNow.AddDate(0, 1, 0))
	usage, err := svc.ResetUsageForPeriod(ctx, companyID, period)
	require.NoError(t, err)
	assert.Equal(t, period.Start, usage.PeriodStart)
	assert.Zero(t, usage.FeedbackCount)

	_, err = svc.ResetUsageForPeriod(ctx, companyID, period)
	assert.ErrorIs(t, err, subscription.ErrUsagePeriodExists)

	_, err = svc.ResetUsageForPeriod(ctx, companyID, subscription.Period{Start: period.End, End: period.Start})
	assert.ErrorIs(t, err, subscription.ErrInvalidPeriod)
}

func TestCancelAndReactivate(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	companyID := uuid.New()

	_, err := svc.CancelSubscription(ctx, companyID)
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

	_, err = svc.UpdateSubscriptionPlan(ctx, companyID, subscription.PlanPro, subscription.StatusPastDue, subscription.PlanUpdate{})
	require.NoError(t, err)

	sub, err := svc.CancelSubscription(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, subscription.PlanPro, sub.Plan, "cancel does not downgrade")

	sub, err = svc.ReactivateSubscription(ctx, companyID)
	require.NoError(t, err)
	assert.False(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, subscription.StatusActive, sub.Status)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetSubscription(ctx context.Context, companyID uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockStore) CreateSubscription(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockStore) SaveSubscription(ctx context.Context, sub *subscription.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockStore) GetUsage(ctx context.Context, companyID uuid.UUID, periodStart time.Time) (*subscription.UsageMetrics, error) {
	args := m.Called(ctx, companyID, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.UsageMetrics), args.Error(1)
}

func (m *mockStore) EnsureUsage(ctx context.Context, u *subscription.UsageMetrics) (*subscription.UsageMetrics, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.UsageMetrics), args.Error(1)
}

func (m *mockStore) CreateUsage(ctx context.Context, u *subscription.UsageMetrics) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockStore) IncrementUsage(ctx context.Context, companyID uuid.UUID, periodStart time.Time, res subscription.Resource, delta int64) error {
	return m.Called(ctx, companyID, periodStart, res, delta).Error(0)
}

func TestService_StoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")

	t.Run("get subscription", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("GetSubscription", mock.Anything, mock.Anything).Return(nil, boom)

		svc := subscription.NewService(store)
		_, err := svc.GetOrCreateSubscription(context.Background(), uuid.New())
		assert.ErrorIs(t, err, subscription.ErrFailedToGetSubscription)
		assert.ErrorIs(t, err, boom)
		store.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
	})

	t.Run("increment", func(t *testing.T) {
		t.Parallel()

		companyID := uuid.New()
		store := &mockStore{}
		store.On("GetSubscription", mock.Anything, companyID).
			Return(subscription.NewFreeSubscription(companyID, fixedNow), nil)
		store.On("GetUsage", mock.Anything, companyID, mock.Anything).
			Return(&subscription.UsageMetrics{CompanyID: companyID, PeriodStart: fixedNow}, nil)
		store.On("IncrementUsage", mock.Anything, companyID, fixedNow, subscription.ResourceFeedbacks, int64(1)).
			Return(boom)

		svc := subscription.NewService(store, subscription.WithClock(clock))
		err := svc.IncrementFeedbackCount(context.Background(), companyID)
		assert.ErrorIs(t, err, subscription.ErrFailedToIncrementUsage)
		store.AssertExpectations(t)
	})
}

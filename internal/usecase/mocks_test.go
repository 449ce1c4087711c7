package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy, like a real repository would.
	return args.Get(0).(*entity.Lead).Clone(), args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *entity.Lead, expectedVersion int) error {
	return m.Called(ctx, lead, expectedVersion).Error(0)
}

func (m *MockLeadRepository) FindDeadlineCandidates(ctx context.Context, deadlineBefore time.Time) ([]*entity.Lead, error) {
	args := m.Called(ctx, deadlineBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindPreClaimCreatedBefore(ctx context.Context, createdBefore time.Time) ([]*entity.Lead, error) {
	args := m.Called(ctx, createdBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

// MockActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Create(ctx context.Context, activity *entity.LeadActivity) error {
	return m.Called(ctx, activity).Error(0)
}

func (m *MockActivityRepository) FindByLeadID(ctx context.Context, leadID string) ([]*entity.LeadActivity, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.LeadActivity), args.Error(1)
}

func (m *MockActivityRepository) CountProgressByLeadID(ctx context.Context, leadID string) (int, error) {
	args := m.Called(ctx, leadID)
	return args.Int(0), args.Error(1)
}

// MockWarningPublisher
type MockWarningPublisher struct {
	mock.Mock
}

func (m *MockWarningPublisher) PublishDeadlineWarning(ctx context.Context, payload queue.DeadlineWarningPayload) error {
	return m.Called(ctx, payload).Error(0)
}

// MockDispatchLock
type MockDispatchLock struct {
	mock.Mock
}

func (m *MockDispatchLock) Acquire(ctx context.Context, leadID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, leadID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatchLock) Release(ctx context.Context, leadID string) error {
	return m.Called(ctx, leadID).Error(0)
}

func day(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// registered returns a stored lead that documented first contact on the given day.
func registered(registeredAt time.Time) *entity.Lead {
	lead := entity.NewLead("user-1", "owner@example.com", "ACME GmbH", registeredAt.Add(-2*entity.Day))
	next, err := entity.DocumentFirstContact(lead, "Erika Mustermann", lead.Version, registeredAt)
	if err != nil {
		panic(err)
	}
	return next
}

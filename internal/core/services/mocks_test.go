package services_test

import (
	"context"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockChildRepository is a mock implementation of ChildRepository
type MockChildRepository struct {
	mock.Mock
}

func (m *MockChildRepository) CreateChild(ctx context.Context, child *domain.Child) error {
	args := m.Called(ctx, child)
	return args.Error(0)
}

func (m *MockChildRepository) GetChildByID(ctx context.Context, childID uuid.UUID) (*domain.Child, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Child), args.Error(1)
}

func (m *MockChildRepository) ListChildren(ctx context.Context, parentUserID uuid.UUID, isAdmin bool) ([]*domain.Child, error) {
	args := m.Called(ctx, parentUserID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Child), args.Error(1)
}

func (m *MockChildRepository) UpdateChild(ctx context.Context, child *domain.Child) error {
	args := m.Called(ctx, child)
	return args.Error(0)
}

func (m *MockChildRepository) DeleteChild(ctx context.Context, childID uuid.UUID) error {
	args := m.Called(ctx, childID)
	return args.Error(0)
}

func (m *MockChildRepository) ChildExists(ctx context.Context, childID uuid.UUID) (bool, error) {
	args := m.Called(ctx, childID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChildRepository) CheckChildOwnership(ctx context.Context, childID uuid.UUID, parentUserID uuid.UUID) (bool, error) {
	args := m.Called(ctx, childID, parentUserID)
	return args.Bool(0), args.Error(1)
}

// MockVaccinationRepository is a mock implementation of VaccinationRepository
type MockVaccinationRepository struct {
	mock.Mock
}

func (m *MockVaccinationRepository) CreateVaccinations(ctx context.Context, vaccinations []*domain.ScheduledVaccination) error {
	args := m.Called(ctx, vaccinations)
	return args.Error(0)
}

func (m *MockVaccinationRepository) ListVaccinations(ctx context.Context, childID uuid.UUID) ([]*domain.ScheduledVaccination, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduledVaccination), args.Error(1)
}

func (m *MockVaccinationRepository) GetVaccinationByID(ctx context.Context, vaccinationID uuid.UUID) (*domain.ScheduledVaccination, error) {
	args := m.Called(ctx, vaccinationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduledVaccination), args.Error(1)
}

func (m *MockVaccinationRepository) UpdateVaccinationStatus(ctx context.Context, vaccination *domain.ScheduledVaccination) error {
	args := m.Called(ctx, vaccination)
	return args.Error(0)
}

func (m *MockVaccinationRepository) ReplaceSchedule(ctx context.Context, childID uuid.UUID, vaccinations []*domain.ScheduledVaccination) error {
	args := m.Called(ctx, childID, vaccinations)
	return args.Error(0)
}

// MockHealthEventRepository is a mock implementation of HealthEventRepository
type MockHealthEventRepository struct {
	mock.Mock
}

func (m *MockHealthEventRepository) CreateHealthEvent(ctx context.Context, event *domain.HealthEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockHealthEventRepository) ListHealthEvents(ctx context.Context, childID uuid.UUID, eventType *string) ([]*domain.HealthEvent, error) {
	args := m.Called(ctx, childID, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HealthEvent), args.Error(1)
}

func (m *MockHealthEventRepository) GetHealthEventByID(ctx context.Context, eventID uuid.UUID) (*domain.HealthEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HealthEvent), args.Error(1)
}

func (m *MockHealthEventRepository) DeleteHealthEvent(ctx context.Context, eventID uuid.UUID) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

// MockReminderRepository is a mock implementation of ReminderRepository
type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) GetReminderSettings(ctx context.Context, childID uuid.UUID) (*domain.ReminderSettings, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReminderSettings), args.Error(1)
}

func (m *MockReminderRepository) SaveReminderSettings(ctx context.Context, settings *domain.ReminderSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockReminderRepository) ListReminderSettings(ctx context.Context) ([]*domain.ReminderSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReminderSettings), args.Error(1)
}

func (m *MockReminderRepository) RecordSentReminder(ctx context.Context, sent *domain.SentReminder) error {
	args := m.Called(ctx, sent)
	return args.Error(0)
}

func (m *MockReminderRepository) ListSentReminders(ctx context.Context, vaccinationID uuid.UUID) ([]*domain.SentReminder, error) {
	args := m.Called(ctx, vaccinationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SentReminder), args.Error(1)
}

// MockReminderPublisher is a mock implementation of ReminderPublisher
type MockReminderPublisher struct {
	mock.Mock
}

func (m *MockReminderPublisher) PublishReminder(ctx context.Context, event *domain.ReminderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// expectOwnedChild sets up the ownership checks for a PARENT owning child
func expectOwnedChild(repo *MockChildRepository, child *domain.Child, userID uuid.UUID) {
	repo.On("ChildExists", mock.Anything, child.ID).Return(true, nil)
	repo.On("CheckChildOwnership", mock.Anything, child.ID, userID).Return(true, nil)
	repo.On("GetChildByID", mock.Anything, child.ID).Return(child, nil)
}

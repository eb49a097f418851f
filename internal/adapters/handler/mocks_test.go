package handler_test

import (
	"context"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/adapters/middleware"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// asUser attaches an authenticated user to the request the way the auth
// middleware does
func asUser(req *http.Request, userID uuid.UUID, role string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, middleware.RoleKey, role)
	return req.WithContext(ctx)
}

// MockChildService is a mock implementation of ChildService
type MockChildService struct {
	mock.Mock
}

func (m *MockChildService) CreateChild(ctx context.Context, req ports.CreateChildRequest, userID uuid.UUID, isAdmin bool) (*domain.Child, int, error) {
	args := m.Called(ctx, req, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*domain.Child), args.Int(1), args.Error(2)
}

func (m *MockChildService) GetChild(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.Child, error) {
	args := m.Called(ctx, childID, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Child), args.Error(1)
}

func (m *MockChildService) ListChildren(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]*domain.Child, error) {
	args := m.Called(ctx, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Child), args.Error(1)
}

func (m *MockChildService) UpdateChild(ctx context.Context, childID uuid.UUID, req ports.UpdateChildRequest, userID uuid.UUID, isAdmin bool) (*domain.Child, error) {
	args := m.Called(ctx, childID, req, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Child), args.Error(1)
}

func (m *MockChildService) DeleteChild(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) error {
	args := m.Called(ctx, childID, userID, isAdmin)
	return args.Error(0)
}

func (m *MockChildService) RegenerateSchedule(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) ([]*domain.ScheduledVaccination, error) {
	args := m.Called(ctx, childID, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduledVaccination), args.Error(1)
}

// MockVaccinationService is a mock implementation of VaccinationService
type MockVaccinationService struct {
	mock.Mock
}

func (m *MockVaccinationService) ListVaccinations(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) ([]*domain.ScheduledVaccination, error) {
	args := m.Called(ctx, childID, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduledVaccination), args.Error(1)
}

func (m *MockVaccinationService) Overview(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, ref civil.Date) (*ports.VaccinationOverview, error) {
	args := m.Called(ctx, childID, userID, isAdmin, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.VaccinationOverview), args.Error(1)
}

func (m *MockVaccinationService) MarkCompleted(ctx context.Context, vaccinationID uuid.UUID, details domain.CompletionDetails, userID uuid.UUID, isAdmin bool) (*domain.ScheduledVaccination, error) {
	args := m.Called(ctx, vaccinationID, details, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduledVaccination), args.Error(1)
}

func (m *MockVaccinationService) MarkPending(ctx context.Context, vaccinationID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.ScheduledVaccination, error) {
	args := m.Called(ctx, vaccinationID, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduledVaccination), args.Error(1)
}

// MockHealthEventService is a mock implementation of HealthEventService
type MockHealthEventService struct {
	mock.Mock
}

func (m *MockHealthEventService) AddEvent(ctx context.Context, childID uuid.UUID, req ports.CreateHealthEventRequest, userID uuid.UUID, isAdmin bool) (*domain.HealthEvent, error) {
	args := m.Called(ctx, childID, req, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HealthEvent), args.Error(1)
}

func (m *MockHealthEventService) ListEvents(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, eventType *string) ([]*domain.HealthEvent, error) {
	args := m.Called(ctx, childID, userID, isAdmin, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HealthEvent), args.Error(1)
}

func (m *MockHealthEventService) DeleteEvent(ctx context.Context, eventID uuid.UUID, userID uuid.UUID, isAdmin bool) error {
	args := m.Called(ctx, eventID, userID, isAdmin)
	return args.Error(0)
}

func (m *MockHealthEventService) Timeline(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, category *string) ([]domain.TimelineItem, error) {
	args := m.Called(ctx, childID, userID, isAdmin, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TimelineItem), args.Error(1)
}

// MockReminderService is a mock implementation of ReminderService
type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) GetSettings(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.ReminderSettings, error) {
	args := m.Called(ctx, childID, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReminderSettings), args.Error(1)
}

func (m *MockReminderService) SaveSettings(ctx context.Context, childID uuid.UUID, req ports.ReminderSettingsRequest, userID uuid.UUID, isAdmin bool) (*domain.ReminderSettings, error) {
	args := m.Called(ctx, childID, req, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReminderSettings), args.Error(1)
}

func (m *MockReminderService) DueReminders(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, ref civil.Date) ([]domain.Reminder, error) {
	args := m.Called(ctx, childID, userID, isAdmin, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reminder), args.Error(1)
}

func (m *MockReminderService) Sweep(ctx context.Context, ref civil.Date) (*ports.SweepResult, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.SweepResult), args.Error(1)
}

package services_test

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/IANDYI/immunization-service/internal/core/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reminderFixture struct {
	childRepo    *MockChildRepository
	vaccRepo     *MockVaccinationRepository
	reminderRepo *MockReminderRepository
	publisher    *MockReminderPublisher
	svc          *services.ReminderService
}

func newReminderFixture() *reminderFixture {
	f := &reminderFixture{
		childRepo:    new(MockChildRepository),
		vaccRepo:     new(MockVaccinationRepository),
		reminderRepo: new(MockReminderRepository),
		publisher:    new(MockReminderPublisher),
	}
	f.svc = services.NewReminderService(f.childRepo, f.vaccRepo, f.reminderRepo, f.publisher, zap.NewNop()).WithClock(fixedClock)
	return f
}

func TestReminderMessage(t *testing.T) {
	due := civil.Date{Year: 2024, Month: 2, Day: 19}

	assert.Equal(t, "Reminder: DTP-1 is due in 7 days (February 19, 2024)", services.ReminderMessage("DTP-1", due, 7))
	assert.Equal(t, "Reminder: DTP-1 is due tomorrow (February 19, 2024)", services.ReminderMessage("DTP-1", due, 1))
	assert.Equal(t, "Reminder: DTP-1 is due today!", services.ReminderMessage("DTP-1", due, 0))
	assert.Equal(t, "OVERDUE: DTP-1 was due on February 19, 2024 (3 days ago)", services.ReminderMessage("DTP-1", due, -3))
}

func TestReminderService_DueReminders(t *testing.T) {
	f := newReminderFixture()
	parent := uuid.New()
	child := testChild(parent)
	expectOwnedChild(f.childRepo, child, parent)

	rows := []*domain.ScheduledVaccination{
		row(child.ID, "BCG", civil.Date{Year: 2024, Month: 1, Day: 1}, domain.VaccinationStatusCompleted),
		row(child.ID, "OPV-0", civil.Date{Year: 2024, Month: 1, Day: 1}, domain.VaccinationStatusPending),
		row(child.ID, "DTP-1", civil.Date{Year: 2024, Month: 2, Day: 12}, domain.VaccinationStatusPending),
		row(child.ID, "Hib-1", civil.Date{Year: 2024, Month: 2, Day: 13}, domain.VaccinationStatusPending),
		row(child.ID, "PCV-1", civil.Date{Year: 2024, Month: 2, Day: 15}, domain.VaccinationStatusPending),
		row(child.ID, "DTP-2", civil.Date{Year: 2024, Month: 2, Day: 19}, domain.VaccinationStatusPending),
	}
	f.vaccRepo.On("ListVaccinations", mock.Anything, child.ID).Return(rows, nil)

	reminders, err := f.svc.DueReminders(context.Background(), child.ID, parent, false, today)

	require.NoError(t, err)
	require.Len(t, reminders, 4)
	assert.Equal(t, domain.ReminderOverdue, reminders[0].ReminderType)
	assert.Equal(t, -42, reminders[0].DaysUntilDue)
	assert.Equal(t, domain.ReminderOnDay, reminders[1].ReminderType)
	assert.Equal(t, domain.ReminderOneDay, reminders[2].ReminderType)
	assert.Equal(t, domain.ReminderSevenDays, reminders[3].ReminderType)
	assert.Equal(t, "DTP-2", reminders[3].VaccineName)
}

func TestReminderService_GetSettings_Defaults(t *testing.T) {
	f := newReminderFixture()
	parent := uuid.New()
	child := testChild(parent)
	expectOwnedChild(f.childRepo, child, parent)
	f.reminderRepo.On("GetReminderSettings", mock.Anything, child.ID).Return(nil, nil)

	settings, err := f.svc.GetSettings(context.Background(), child.ID, parent, false)

	require.NoError(t, err)
	assert.Equal(t, child.ID, settings.ChildID)
	assert.False(t, settings.EmailEnabled)
	assert.True(t, settings.SevenDaysBefore)
	assert.True(t, settings.OneDayBefore)
	assert.True(t, settings.OnDueDate)
}

func TestReminderService_SaveSettings(t *testing.T) {
	f := newReminderFixture()
	parent := uuid.New()
	child := testChild(parent)
	expectOwnedChild(f.childRepo, child, parent)
	f.reminderRepo.On("SaveReminderSettings", mock.Anything, mock.MatchedBy(func(s *domain.ReminderSettings) bool {
		return s.ChildID == child.ID && s.EmailAddress == "parent@example.com" && !s.OneDayBefore
	})).Return(nil)

	settings, err := f.svc.SaveSettings(context.Background(), child.ID, ports.ReminderSettingsRequest{
		EmailEnabled:    true,
		EmailAddress:    " parent@example.com ",
		SevenDaysBefore: true,
		OnDueDate:       true,
	}, parent, false)

	require.NoError(t, err)
	assert.Equal(t, fixedNow, settings.UpdatedAt)
	f.reminderRepo.AssertExpectations(t)
}

func TestReminderService_SaveSettings_RequiresDestination(t *testing.T) {
	f := newReminderFixture()

	_, err := f.svc.SaveSettings(context.Background(), uuid.New(), ports.ReminderSettingsRequest{EmailEnabled: true}, uuid.New(), false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.SaveSettings(context.Background(), uuid.New(), ports.ReminderSettingsRequest{SMSEnabled: true}, uuid.New(), false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.reminderRepo.AssertNotCalled(t, "SaveReminderSettings")
}

func TestReminderService_Sweep(t *testing.T) {
	f := newReminderFixture()
	child := testChild(uuid.New())

	sevenDays := row(child.ID, "DTP-2", civil.Date{Year: 2024, Month: 2, Day: 19}, domain.VaccinationStatusPending)
	oneDay := row(child.ID, "Hib-1", civil.Date{Year: 2024, Month: 2, Day: 13}, domain.VaccinationStatusPending)
	onDay := row(child.ID, "DTP-1", civil.Date{Year: 2024, Month: 2, Day: 12}, domain.VaccinationStatusPending)
	overdue := row(child.ID, "OPV-0", civil.Date{Year: 2024, Month: 2, Day: 10}, domain.VaccinationStatusPending)
	done := row(child.ID, "Rota-2", civil.Date{Year: 2024, Month: 2, Day: 19}, domain.VaccinationStatusCompleted)

	settings := &domain.ReminderSettings{
		ChildID:         child.ID,
		EmailEnabled:    true,
		EmailAddress:    "parent@example.com",
		SMSEnabled:      true,
		PhoneNumber:     "+911234567890",
		SevenDaysBefore: true,
		OneDayBefore:    false,
		OnDueDate:       true,
	}
	brokenChildID := uuid.New()
	broken := &domain.ReminderSettings{ChildID: brokenChildID, EmailEnabled: true, EmailAddress: "x@example.com", OnDueDate: true}
	silent := &domain.ReminderSettings{ChildID: uuid.New(), SevenDaysBefore: true}

	f.reminderRepo.On("ListReminderSettings", mock.Anything).Return([]*domain.ReminderSettings{settings, broken, silent}, nil)
	f.childRepo.On("GetChildByID", mock.Anything, child.ID).Return(child, nil)
	f.childRepo.On("GetChildByID", mock.Anything, brokenChildID).Return(nil, errors.New("db down"))
	f.vaccRepo.On("ListVaccinations", mock.Anything, child.ID).
		Return([]*domain.ScheduledVaccination{overdue, onDay, oneDay, sevenDays, done}, nil)

	f.reminderRepo.On("ListSentReminders", mock.Anything, sevenDays.ID).Return([]*domain.SentReminder{}, nil)
	f.reminderRepo.On("ListSentReminders", mock.Anything, onDay.ID).Return([]*domain.SentReminder{
		{VaccinationID: onDay.ID, ReminderType: domain.ReminderOnDay, Channel: domain.ChannelEmail},
	}, nil)

	var published []*domain.ReminderEvent
	f.publisher.On("PublishReminder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { published = append(published, args.Get(1).(*domain.ReminderEvent)) }).
		Return(nil)
	f.reminderRepo.On("RecordSentReminder", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.Sweep(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Published)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)

	require.Len(t, published, 3)
	// Rows are visited in due-date order: the on-day dose comes first
	assert.Equal(t, onDay.ID, published[0].VaccinationID)
	assert.Equal(t, domain.ChannelSMS, published[0].Channel)
	assert.Equal(t, "+911234567890", published[0].Recipient)
	assert.Equal(t, "Reminder: DTP-1 is due today!", published[0].Message)
	assert.Equal(t, sevenDays.ID, published[1].VaccinationID)
	assert.Equal(t, domain.ChannelEmail, published[1].Channel)
	assert.Equal(t, "parent@example.com", published[1].Recipient)
	assert.Equal(t, "Asha", published[1].ChildName)
	assert.Equal(t, domain.ReminderSevenDays, published[1].ReminderType)
	assert.Equal(t, sevenDays.ID, published[2].VaccinationID)
	assert.Equal(t, domain.ChannelSMS, published[2].Channel)

	f.reminderRepo.AssertNumberOfCalls(t, "RecordSentReminder", 3)
	f.reminderRepo.AssertNotCalled(t, "ListSentReminders", mock.Anything, oneDay.ID)
	f.reminderRepo.AssertNotCalled(t, "ListSentReminders", mock.Anything, overdue.ID)
}

func TestReminderService_Sweep_PublishFailureIsCounted(t *testing.T) {
	f := newReminderFixture()
	child := testChild(uuid.New())
	onDay := row(child.ID, "DTP-1", today, domain.VaccinationStatusPending)

	f.reminderRepo.On("ListReminderSettings", mock.Anything).Return([]*domain.ReminderSettings{{
		ChildID: child.ID, EmailEnabled: true, EmailAddress: "p@example.com", OnDueDate: true,
	}}, nil)
	f.childRepo.On("GetChildByID", mock.Anything, child.ID).Return(child, nil)
	f.vaccRepo.On("ListVaccinations", mock.Anything, child.ID).Return([]*domain.ScheduledVaccination{onDay}, nil)
	f.reminderRepo.On("ListSentReminders", mock.Anything, onDay.ID).Return([]*domain.SentReminder{}, nil)
	f.publisher.On("PublishReminder", mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))

	result, err := f.svc.Sweep(context.Background(), today)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Published)
	assert.Equal(t, 1, result.Failed)
	f.reminderRepo.AssertNotCalled(t, "RecordSentReminder")
}

func TestReminderService_Sweep_ListError(t *testing.T) {
	f := newReminderFixture()
	f.reminderRepo.On("ListReminderSettings", mock.Anything).Return(nil, errors.New("db down"))

	result, err := f.svc.Sweep(context.Background(), today)

	assert.Error(t, err)
	assert.Nil(t, result)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLRepository(db, gobreaker.Settings{}).WithRetryPolicy(1, 0), mock
}

func civilTime(d civil.Date) time.Time {
	return d.In(time.UTC)
}

var (
	createdAt = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	dob       = civil.Date{Year: 2024, Month: time.January, Day: 1}
)

func childRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "parent_user_id", "name", "date_of_birth", "guideline", "gender",
		"blood_group", "allergies", "created_at", "updated_at"})
}

func vaccinationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "child_id", "vaccine_name", "vaccine_code", "due_date", "status",
		"administered_date", "notes", "administered_by", "batch_number", "created_at", "updated_at"})
}

func TestCreateChild(t *testing.T) {
	repo, mock := newMockRepository(t)
	child := &domain.Child{
		ID:           uuid.New(),
		ParentUserID: uuid.New(),
		Name:         "Asha",
		DateOfBirth:  dob,
		Guideline:    domain.GuidelineWHO,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	mock.ExpectExec("INSERT INTO children").
		WithArgs(child.ID, child.ParentUserID, "Asha", "2024-01-01", "WHO", nil, nil, nil, createdAt, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateChild(context.Background(), child))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetChildByID(t *testing.T) {
	repo, mock := newMockRepository(t)
	id, parent := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM children WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(childRows().AddRow(id.String(), parent.String(), "Asha", civilTime(dob), "WHO", "female", nil, "peanuts", createdAt, createdAt))

	child, err := repo.GetChildByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, child.ID)
	assert.Equal(t, parent, child.ParentUserID)
	assert.Equal(t, dob, child.DateOfBirth)
	assert.Equal(t, "female", child.Gender)
	assert.Empty(t, child.BloodGroup)
	assert.Equal(t, "peanuts", child.Allergies)
}

func TestGetChildByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery("SELECT (.+) FROM children").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetChildByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrChildNotFound)
}

func TestListChildren(t *testing.T) {
	parent := uuid.New()

	t.Run("parent sees own children", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery("SELECT (.+) FROM children WHERE parent_user_id = \\$1 ORDER BY created_at DESC").
			WithArgs(parent).
			WillReturnRows(childRows().AddRow(uuid.NewString(), parent.String(), "Asha", civilTime(dob), "WHO", nil, nil, nil, createdAt, createdAt))

		children, err := repo.ListChildren(context.Background(), parent, false)
		require.NoError(t, err)
		assert.Len(t, children, 1)
	})

	t.Run("admin sees every child", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery("SELECT (.+) FROM children ORDER BY created_at DESC").
			WillReturnRows(childRows())

		children, err := repo.ListChildren(context.Background(), uuid.New(), true)
		require.NoError(t, err)
		assert.NotNil(t, children)
		assert.Empty(t, children)
	})
}

func TestDeleteChild_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec("DELETE FROM children").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteChild(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrChildNotFound)
}

func TestCheckChildOwnership(t *testing.T) {
	repo, mock := newMockRepository(t)
	childID, parent := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM children WHERE id = \\$1 AND parent_user_id = \\$2").
		WithArgs(childID, parent).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM children WHERE id = \\$1 AND parent_user_id = \\$2").
		WithArgs(childID, parent).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	owned, err := repo.CheckChildOwnership(context.Background(), childID, parent)
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = repo.CheckChildOwnership(context.Background(), childID, parent)
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestCreateVaccinations_UsesTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)
	childID := uuid.New()
	administered := civil.Date{Year: 2024, Month: time.February, Day: 12}
	rows := []*domain.ScheduledVaccination{
		{ID: uuid.New(), ChildID: childID, VaccineName: "BCG", VaccineCode: "BCG", DueDate: dob,
			Status: domain.VaccinationStatusCompleted, AdministeredDate: &administered,
			Notes: domain.ReceivedDuringProfileCreationNote, CreatedAt: createdAt, UpdatedAt: createdAt},
		{ID: uuid.New(), ChildID: childID, VaccineName: "DTP1", VaccineCode: "DTP", DueDate: dob.AddDays(42),
			Status: domain.VaccinationStatusPending, CreatedAt: createdAt, UpdatedAt: createdAt},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO vaccinations")
	prep.ExpectExec().
		WithArgs(rows[0].ID, childID, "BCG", "BCG", "2024-01-01", "completed", "2024-02-12",
			domain.ReceivedDuringProfileCreationNote, nil, nil, createdAt, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(rows[1].ID, childID, "DTP1", "DTP", "2024-02-12", "pending", nil, nil, nil, nil, createdAt, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateVaccinations(context.Background(), rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVaccinations_Empty(t *testing.T) {
	repo, mock := newMockRepository(t)

	require.NoError(t, repo.CreateVaccinations(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSchedule_RollsBackOnError(t *testing.T) {
	repo, mock := newMockRepository(t)
	childID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM vaccinations WHERE child_id = \\$1").
		WithArgs(childID).
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectPrepare("INSERT INTO vaccinations").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.ReplaceSchedule(context.Background(), childID, []*domain.ScheduledVaccination{
		{ID: uuid.New(), ChildID: childID, VaccineName: "BCG", DueDate: dob, Status: domain.VaccinationStatusPending},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListVaccinations(t *testing.T) {
	repo, mock := newMockRepository(t)
	childID := uuid.New()
	administered := civil.Date{Year: 2024, Month: time.January, Day: 3}

	mock.ExpectQuery("SELECT (.+) FROM vaccinations WHERE child_id = \\$1 ORDER BY due_date").
		WithArgs(childID).
		WillReturnRows(vaccinationRows().
			AddRow(uuid.NewString(), childID.String(), "BCG", "BCG", civilTime(dob), "completed", civilTime(administered),
				"given at birth", "Dr. Rao", "B-17", createdAt, createdAt).
			AddRow(uuid.NewString(), childID.String(), "DTP1", nil, civilTime(dob.AddDays(42)), "pending", nil,
				nil, nil, nil, createdAt, createdAt))

	vaccinations, err := repo.ListVaccinations(context.Background(), childID)
	require.NoError(t, err)
	require.Len(t, vaccinations, 2)

	assert.True(t, vaccinations[0].IsCompleted())
	require.NotNil(t, vaccinations[0].AdministeredDate)
	assert.Equal(t, administered, *vaccinations[0].AdministeredDate)
	assert.Equal(t, "Dr. Rao", vaccinations[0].AdministeredBy)
	assert.Equal(t, "B-17", vaccinations[0].BatchNumber)

	assert.Equal(t, domain.VaccinationStatusPending, vaccinations[1].Status)
	assert.Nil(t, vaccinations[1].AdministeredDate)
	assert.Empty(t, vaccinations[1].VaccineCode)
	assert.Equal(t, dob.AddDays(42), vaccinations[1].DueDate)
}

func TestUpdateVaccinationStatus_ClearsCompletion(t *testing.T) {
	repo, mock := newMockRepository(t)
	v := &domain.ScheduledVaccination{ID: uuid.New(), Status: domain.VaccinationStatusPending, UpdatedAt: createdAt}

	mock.ExpectExec("UPDATE vaccinations SET status").
		WithArgs(v.ID, "pending", nil, nil, nil, nil, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateVaccinationStatus(context.Background(), v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVaccinationByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery("SELECT (.+) FROM vaccinations WHERE id = \\$1").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetVaccinationByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrVaccinationNotFound)
}

func TestListHealthEvents_TypeFilter(t *testing.T) {
	repo, mock := newMockRepository(t)
	childID := uuid.New()
	eventType := domain.HealthEventTypeIllness
	eventDate := civil.Date{Year: 2024, Month: time.March, Day: 4}

	mock.ExpectQuery("SELECT (.+) FROM health_events WHERE child_id = \\$1 AND event_type = \\$2 ORDER BY event_date DESC, created_at DESC").
		WithArgs(childID, "illness").
		WillReturnRows(sqlmock.NewRows([]string{"id", "child_id", "event_type", "event_date", "title", "description",
			"severity", "symptoms", "treatment", "doctor_name", "hospital_clinic", "created_at"}).
			AddRow(uuid.NewString(), childID.String(), "illness", civilTime(eventDate), "Fever", nil, "mild", "38.5C",
				nil, nil, nil, createdAt))

	events, err := repo.ListHealthEvents(context.Background(), childID, &eventType)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventDate, events[0].EventDate)
	assert.Equal(t, "mild", events[0].Severity)
	assert.Empty(t, events[0].Description)
}

func TestDeleteHealthEvent_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec("DELETE FROM health_events").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteHealthEvent(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrHealthEventNotFound)
}

func TestGetReminderSettings_NoneSaved(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery("SELECT (.+) FROM reminder_settings WHERE child_id = \\$1").WillReturnError(sql.ErrNoRows)

	settings, err := repo.GetReminderSettings(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, settings)
}

func TestSaveReminderSettings_Upserts(t *testing.T) {
	repo, mock := newMockRepository(t)
	s := &domain.ReminderSettings{
		ChildID:         uuid.New(),
		EmailEnabled:    true,
		EmailAddress:    "parent@example.com",
		SevenDaysBefore: true,
		OnDueDate:       true,
		UpdatedAt:       createdAt,
	}

	mock.ExpectExec("INSERT INTO reminder_settings (.+) ON CONFLICT \\(child_id\\) DO UPDATE").
		WithArgs(s.ChildID, true, "parent@example.com", false, nil, true, false, true, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveReminderSettings(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSentReminders(t *testing.T) {
	repo, mock := newMockRepository(t)
	vaccinationID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM sent_reminders WHERE vaccination_id = \\$1").
		WithArgs(vaccinationID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vaccination_id", "reminder_type", "channel", "sent_at"}).
			AddRow(uuid.NewString(), vaccinationID.String(), "7_days_before", "email", createdAt))

	sent, err := repo.ListSentReminders(context.Background(), vaccinationID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, domain.ReminderSevenDays, sent[0].ReminderType)
	assert.Equal(t, domain.ChannelEmail, sent[0].Channel)
}

func TestExecuteWithRetry(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLRepository(db, gobreaker.Settings{}).WithRetryPolicy(3, 0)

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		err := repo.executeWithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("no rows is not retried", func(t *testing.T) {
		calls := 0
		err := repo.executeWithRetry(context.Background(), func() error {
			calls++
			return sql.ErrNoRows
		})
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		err := repo.executeWithRetry(context.Background(), func() error {
			return errors.New("connection refused")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "operation failed after 3 retries")
	})
}

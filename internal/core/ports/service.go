package ports

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/google/uuid"
)

// ChildService defines the business logic interface for child profiles
type ChildService interface {
	// CreateChild creates a child profile and its full vaccination schedule
	// Only PARENT can create children; the caller becomes the owner
	// Returns the child and the number of doses pre-marked as received
	CreateChild(ctx context.Context, req CreateChildRequest, userID uuid.UUID, isAdmin bool) (*domain.Child, int, error)

	// GetChild retrieves a child by ID
	// Enforces ownership: ADMIN can access any, PARENT only their own
	GetChild(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.Child, error)

	// ListChildren retrieves children based on role
	// ADMIN: all children, PARENT: only owned children
	ListChildren(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]*domain.Child, error)

	// UpdateChild updates profile fields; existing schedule rows are untouched
	UpdateChild(ctx context.Context, childID uuid.UUID, req UpdateChildRequest, userID uuid.UUID, isAdmin bool) (*domain.Child, error)

	// DeleteChild deletes a child and everything attached to it
	DeleteChild(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) error

	// RegenerateSchedule discards every row of the child and recreates the
	// schedule as pending from the current date of birth and guideline
	RegenerateSchedule(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) ([]*domain.ScheduledVaccination, error)
}

// VaccinationService defines the business logic interface for scheduled doses
type VaccinationService interface {
	// ListVaccinations retrieves the rows of a child ordered by due date
	ListVaccinations(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) ([]*domain.ScheduledVaccination, error)

	// Overview returns the categorized schedule of a child as of ref
	Overview(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, ref civil.Date) (*VaccinationOverview, error)

	// MarkCompleted sets status completed and stamps completion details
	// Only the owning PARENT can mutate rows
	MarkCompleted(ctx context.Context, vaccinationID uuid.UUID, details domain.CompletionDetails, userID uuid.UUID, isAdmin bool) (*domain.ScheduledVaccination, error)

	// MarkPending reverts a row to pending and clears completion details
	MarkPending(ctx context.Context, vaccinationID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.ScheduledVaccination, error)
}

// HealthEventService defines the business logic interface for the health timeline
type HealthEventService interface {
	AddEvent(ctx context.Context, childID uuid.UUID, req CreateHealthEventRequest, userID uuid.UUID, isAdmin bool) (*domain.HealthEvent, error)

	// ListEvents returns events newest first, optionally filtered by type
	ListEvents(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, eventType *string) ([]*domain.HealthEvent, error)

	DeleteEvent(ctx context.Context, eventID uuid.UUID, userID uuid.UUID, isAdmin bool) error

	// Timeline merges completed doses with health events, newest first
	// Optional filter: category ("Vaccines", "Illness", "Doctor Visit", ...)
	Timeline(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, category *string) ([]domain.TimelineItem, error)
}

// ReminderService defines the business logic interface for vaccination reminders
type ReminderService interface {
	// GetSettings returns saved settings or the defaults
	GetSettings(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.ReminderSettings, error)

	SaveSettings(ctx context.Context, childID uuid.UUID, req ReminderSettingsRequest, userID uuid.UUID, isAdmin bool) (*domain.ReminderSettings, error)

	// DueReminders lists reminders of a child's non-completed doses as of ref
	DueReminders(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, ref civil.Date) ([]domain.Reminder, error)

	// Sweep publishes every reminder due on ref that was not sent yet
	Sweep(ctx context.Context, ref civil.Date) (*SweepResult, error)
}

// CreateChildRequest represents the input for creating a child profile
type CreateChildRequest struct {
	Name             string `json:"name"`
	DateOfBirth      string `json:"date_of_birth"` // YYYY-MM-DD
	Guideline        string `json:"guideline"`
	Gender           string `json:"gender,omitempty"`
	BloodGroup       string `json:"blood_group,omitempty"`
	Allergies        string `json:"allergies,omitempty"`
	ReceivedVaccines string `json:"received_vaccines,omitempty"` // Comma separated free text
}

// UpdateChildRequest carries the profile fields to change; nil fields are kept
type UpdateChildRequest struct {
	Name        *string `json:"name,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Guideline   *string `json:"guideline,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	BloodGroup  *string `json:"blood_group,omitempty"`
	Allergies   *string `json:"allergies,omitempty"`
}

// CreateHealthEventRequest represents the input for a timeline entry
type CreateHealthEventRequest struct {
	EventType      string `json:"event_type"`
	EventDate      string `json:"event_date"` // YYYY-MM-DD
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Severity       string `json:"severity,omitempty"`
	Symptoms       string `json:"symptoms,omitempty"`
	Treatment      string `json:"treatment,omitempty"`
	DoctorName     string `json:"doctor_name,omitempty"`
	HospitalClinic string `json:"hospital_clinic,omitempty"`
}

// ReminderSettingsRequest represents the input for saving reminder settings
type ReminderSettingsRequest struct {
	EmailEnabled    bool   `json:"email_enabled"`
	EmailAddress    string `json:"email_address"`
	SMSEnabled      bool   `json:"sms_enabled"`
	PhoneNumber     string `json:"phone_number"`
	SevenDaysBefore bool   `json:"reminder_7_days"`
	OneDayBefore    bool   `json:"reminder_1_day"`
	OnDueDate       bool   `json:"reminder_on_day"`
}

// VaccinationOverview is the categorized schedule of one child
type VaccinationOverview struct {
	Child         *domain.Child                `json:"child"`
	Age           string                       `json:"age"`
	Guideline     string                       `json:"guideline"`
	ReferenceDate civil.Date                   `json:"reference_date"`
	Completed     int                          `json:"completed"`
	Total         int                          `json:"total"`
	Categories    domain.VaccinationCategories `json:"categories"`
}

// SweepResult summarizes one reminder sweep
type SweepResult struct {
	Published int `json:"published"`
	Skipped   int `json:"skipped"` // Already sent
	Failed    int `json:"failed"`
}

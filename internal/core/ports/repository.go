package ports

import (
	"context"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/google/uuid"
)

// ChildRepository defines the interface for child profile persistence
type ChildRepository interface {
	// CreateChild creates a new child profile
	CreateChild(ctx context.Context, child *domain.Child) error

	// GetChildByID retrieves a child by ID
	GetChildByID(ctx context.Context, childID uuid.UUID) (*domain.Child, error)

	// ListChildren retrieves children based on role:
	// ADMIN: all children
	// PARENT: only children where parent_user_id matches
	ListChildren(ctx context.Context, parentUserID uuid.UUID, isAdmin bool) ([]*domain.Child, error)

	// UpdateChild updates the profile fields of a child
	UpdateChild(ctx context.Context, child *domain.Child) error

	// DeleteChild deletes a child; vaccinations, health events and reminder
	// data cascade
	DeleteChild(ctx context.Context, childID uuid.UUID) error

	// ChildExists checks if a child exists
	ChildExists(ctx context.Context, childID uuid.UUID) (bool, error)

	// CheckChildOwnership checks if a child belongs to a specific parent
	CheckChildOwnership(ctx context.Context, childID uuid.UUID, parentUserID uuid.UUID) (bool, error)
}

// VaccinationRepository defines the interface for scheduled vaccination persistence
type VaccinationRepository interface {
	// CreateVaccinations inserts a full schedule in one transaction
	CreateVaccinations(ctx context.Context, vaccinations []*domain.ScheduledVaccination) error

	// ListVaccinations retrieves all rows of a child ordered by due date
	ListVaccinations(ctx context.Context, childID uuid.UUID) ([]*domain.ScheduledVaccination, error)

	// GetVaccinationByID retrieves a single row
	GetVaccinationByID(ctx context.Context, vaccinationID uuid.UUID) (*domain.ScheduledVaccination, error)

	// UpdateVaccinationStatus persists status, administered date and
	// completion details of a row
	UpdateVaccinationStatus(ctx context.Context, vaccination *domain.ScheduledVaccination) error

	// ReplaceSchedule deletes every row of a child and inserts the given ones
	// in one transaction
	ReplaceSchedule(ctx context.Context, childID uuid.UUID, vaccinations []*domain.ScheduledVaccination) error
}

// HealthEventRepository defines the interface for health event persistence
type HealthEventRepository interface {
	// CreateHealthEvent creates a new health event for a child
	CreateHealthEvent(ctx context.Context, event *domain.HealthEvent) error

	// ListHealthEvents retrieves events of a child, newest first
	// Optional filter: eventType
	ListHealthEvents(ctx context.Context, childID uuid.UUID, eventType *string) ([]*domain.HealthEvent, error)

	// GetHealthEventByID retrieves a specific health event
	GetHealthEventByID(ctx context.Context, eventID uuid.UUID) (*domain.HealthEvent, error)

	// DeleteHealthEvent deletes a health event by ID
	DeleteHealthEvent(ctx context.Context, eventID uuid.UUID) error
}

// ReminderRepository defines the interface for reminder settings and the
// sent-reminder log
type ReminderRepository interface {
	// GetReminderSettings returns nil, nil when no settings were saved
	GetReminderSettings(ctx context.Context, childID uuid.UUID) (*domain.ReminderSettings, error)

	// SaveReminderSettings inserts or updates the settings of a child
	SaveReminderSettings(ctx context.Context, settings *domain.ReminderSettings) error

	// ListReminderSettings returns settings with at least one channel enabled
	ListReminderSettings(ctx context.Context) ([]*domain.ReminderSettings, error)

	// RecordSentReminder appends to the sent-reminder log
	RecordSentReminder(ctx context.Context, sent *domain.SentReminder) error

	// ListSentReminders returns the sent-reminder log of a vaccination
	ListSentReminders(ctx context.Context, vaccinationID uuid.UUID) ([]*domain.SentReminder, error)
}

// ReminderPublisher defines the interface for publishing reminder events to
// the notification dispatcher
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, event *domain.ReminderEvent) error
}

// GuidelineCatalogProvider is the source of vaccine dose definitions.
// Implementations are immutable after construction and safe for
// concurrent use.
type GuidelineCatalogProvider interface {
	// Guidelines returns the known guideline keys
	Guidelines() []string

	// IsKnown reports whether the guideline key has its own table
	IsKnown(guideline string) bool

	// Doses returns the doses of a guideline in chronological order.
	// Unknown keys fall back to domain.DefaultGuideline.
	Doses(guideline string) []domain.VaccineDoseDefinition
}

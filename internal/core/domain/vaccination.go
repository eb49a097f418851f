package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Guideline keys shipped with the service
const (
	GuidelineIndiaUIP = "India (UIP)"
	GuidelineWHO      = "WHO"
	GuidelineCDC      = "CDC (USA)"

	// DefaultGuideline is used when a guideline key is not in the catalog
	DefaultGuideline = GuidelineWHO
)

// UpcomingWindowDays is the inclusive horizon of the upcoming bucket
const UpcomingWindowDays = 30

// VaccineDoseDefinition is one catalog entry of a guideline.
// AgeOffsetWeeks is the only field used for computation.
type VaccineDoseDefinition struct {
	Name           string `json:"name"`
	Code           string `json:"code"`
	AgeOffsetWeeks int    `json:"age_weeks"`
	AgeLabel       string `json:"age_label"`
	Description    string `json:"description"`
	FullName       string `json:"full_name,omitempty"`
	Doses          int    `json:"doses,omitempty"`
	Route          string `json:"route,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// ScheduleEntry is a catalog dose projected onto a child's date of birth
type ScheduleEntry struct {
	VaccineName    string     `json:"vaccine_name"`
	VaccineCode    string     `json:"vaccine_code"`
	DueDate        civil.Date `json:"due_date"`
	AgeOffsetWeeks int        `json:"age_weeks"`
	AgeLabel       string     `json:"age_label"`
	Description    string     `json:"description"`
	FullName       string     `json:"full_name,omitempty"`
	Doses          int        `json:"doses,omitempty"`
	Route          string     `json:"route,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// VaccinationStatus is the persisted, two-valued status of a scheduled dose
type VaccinationStatus string

const (
	VaccinationStatusPending   VaccinationStatus = "pending"
	VaccinationStatusCompleted VaccinationStatus = "completed"
)

// IsValidVaccinationStatus checks if a persisted status is valid
func IsValidVaccinationStatus(status VaccinationStatus) bool {
	return status == VaccinationStatusPending || status == VaccinationStatusCompleted
}

// Bucket is the display classification of a dose.
// It is derived on every read and never stored.
type Bucket string

const (
	BucketOverdue   Bucket = "overdue"
	BucketUpcoming  Bucket = "upcoming"
	BucketPending   Bucket = "pending"
	BucketCompleted Bucket = "completed"
)

// ScheduledVaccination is a persisted dose row for one child.
// Name, code and due date are copied from the catalog at generation time.
type ScheduledVaccination struct {
	ID               uuid.UUID         `json:"id"`
	ChildID          uuid.UUID         `json:"child_id"`
	VaccineName      string            `json:"vaccine_name"`
	VaccineCode      string            `json:"vaccine_code"`
	DueDate          civil.Date        `json:"due_date"`
	Status           VaccinationStatus `json:"status"`
	AdministeredDate *civil.Date       `json:"administered_date,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	AdministeredBy   string            `json:"administered_by,omitempty"`
	BatchNumber      string            `json:"batch_number,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IsCompleted reports whether the persisted status is completed
func (v *ScheduledVaccination) IsCompleted() bool {
	return v.Status == VaccinationStatusCompleted
}

// CompletionDetails carries the fields stamped when a dose is marked completed
type CompletionDetails struct {
	AdministeredDate *civil.Date `json:"administered_date,omitempty"` // Defaults to today
	Notes            string      `json:"notes,omitempty"`
	AdministeredBy   string      `json:"administered_by,omitempty"`
	BatchNumber      string      `json:"batch_number,omitempty"`
}

// ReceivedDuringProfileCreationNote is stored on doses pre-marked from the received list
const ReceivedDuringProfileCreationNote = "Marked as already received during profile creation"

// VaccinationCategories partitions doses into the four display buckets.
// Each slice keeps the relative input order.
type VaccinationCategories struct {
	Overdue   []*ScheduledVaccination `json:"overdue"`
	Upcoming  []*ScheduledVaccination `json:"upcoming"`
	Completed []*ScheduledVaccination `json:"completed"`
	Pending   []*ScheduledVaccination `json:"pending"`
}

// Len returns the number of classified doses
func (c VaccinationCategories) Len() int {
	return len(c.Overdue) + len(c.Upcoming) + len(c.Completed) + len(c.Pending)
}

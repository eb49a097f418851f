package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// HealthEventType constants for validation
const (
	HealthEventTypeIllness     = "illness"
	HealthEventTypeSymptom     = "symptom"
	HealthEventTypeDoctorVisit = "doctor_visit"
	HealthEventTypeMilestone   = "milestone"
	HealthEventTypeOther       = "other"
)

// TimelineCategoryVaccines is the timeline category of administered doses
const TimelineCategoryVaccines = "Vaccines"

// HealthEvent represents an entry on a child's health timeline
type HealthEvent struct {
	ID             uuid.UUID  `json:"id"`
	ChildID        uuid.UUID  `json:"child_id"`
	EventType      string     `json:"event_type"`
	EventDate      civil.Date `json:"event_date"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Severity       string     `json:"severity,omitempty"`
	Symptoms       string     `json:"symptoms,omitempty"`
	Treatment      string     `json:"treatment,omitempty"`
	DoctorName     string     `json:"doctor_name,omitempty"`
	HospitalClinic string     `json:"hospital_clinic,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ValidHealthEventTypes returns a slice of valid health event types
func ValidHealthEventTypes() []string {
	return []string{
		HealthEventTypeIllness,
		HealthEventTypeSymptom,
		HealthEventTypeDoctorVisit,
		HealthEventTypeMilestone,
		HealthEventTypeOther,
	}
}

// IsValidHealthEventType checks if a health event type is valid
func IsValidHealthEventType(eventType string) bool {
	for _, t := range ValidHealthEventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

// TimelineItem is a dated entry of the merged health timeline
type TimelineItem struct {
	Date        civil.Date `json:"date"`
	Category    string     `json:"category"` // "Vaccines", "Illness", "Doctor Visit", ...
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	SourceID    uuid.UUID  `json:"source_id"` // Vaccination or health event ID
}

// TimelineCategory returns the display category of a health event type,
// e.g. "doctor_visit" becomes "Doctor Visit"
func TimelineCategory(eventType string) string {
	words := strings.Fields(strings.ReplaceAll(eventType, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

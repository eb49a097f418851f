package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Child represents a child profile owned by a parent user
// Parent ownership is enforced via parent_user_id from JWT claims
type Child struct {
	ID           uuid.UUID  `json:"id"`
	ParentUserID uuid.UUID  `json:"parent_user_id"`
	Name         string     `json:"name"`
	DateOfBirth  civil.Date `json:"date_of_birth"`
	Guideline    string     `json:"guideline"` // Catalog key, e.g. "WHO"
	Gender       string     `json:"gender,omitempty"`
	BloodGroup   string     `json:"blood_group,omitempty"`
	Allergies    string     `json:"allergies,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

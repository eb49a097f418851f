package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// ReminderType identifies the reminder window a dose falls into
type ReminderType string

const (
	ReminderSevenDays ReminderType = "7_days_before"
	ReminderOneDay    ReminderType = "1_day_before"
	ReminderOnDay     ReminderType = "on_due_date"
	ReminderOverdue   ReminderType = "overdue"
)

// ReminderChannel is the delivery channel of a reminder
type ReminderChannel string

const (
	ChannelEmail ReminderChannel = "email"
	ChannelSMS   ReminderChannel = "sms"
)

// ReminderSettings holds per-child reminder preferences
type ReminderSettings struct {
	ChildID         uuid.UUID `json:"child_id"`
	EmailEnabled    bool      `json:"email_enabled"`
	EmailAddress    string    `json:"email_address,omitempty"`
	SMSEnabled      bool      `json:"sms_enabled"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	SevenDaysBefore bool      `json:"reminder_7_days"`
	OneDayBefore    bool      `json:"reminder_1_day"`
	OnDueDate       bool      `json:"reminder_on_day"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultReminderSettings returns the settings used before a parent saves any
func DefaultReminderSettings(childID uuid.UUID) *ReminderSettings {
	return &ReminderSettings{
		ChildID:         childID,
		SevenDaysBefore: true,
		OneDayBefore:    true,
		OnDueDate:       true,
	}
}

// Wants reports whether the settings enable the given reminder window
func (s *ReminderSettings) Wants(t ReminderType) bool {
	switch t {
	case ReminderSevenDays:
		return s.SevenDaysBefore
	case ReminderOneDay:
		return s.OneDayBefore
	case ReminderOnDay:
		return s.OnDueDate
	default:
		return false
	}
}

// Reminder is a reminder computed for a dose relative to a reference date
type Reminder struct {
	VaccinationID uuid.UUID    `json:"vaccination_id"`
	VaccineName   string       `json:"vaccine_name"`
	DueDate       civil.Date   `json:"due_date"`
	DaysUntilDue  int          `json:"days_until_due"`
	ReminderType  ReminderType `json:"reminder_type"`
	Message       string       `json:"message"`
}

// SentReminder records a reminder already dispatched for a dose
type SentReminder struct {
	ID            uuid.UUID       `json:"id"`
	VaccinationID uuid.UUID       `json:"vaccination_id"`
	ReminderType  ReminderType    `json:"reminder_type"`
	Channel       ReminderChannel `json:"channel"`
	SentAt        time.Time       `json:"sent_at"`
}

// ReminderEvent is published for the notification dispatcher (email/SMS)
type ReminderEvent struct {
	ChildID       uuid.UUID       `json:"child_id"`
	ChildName     string          `json:"child_name"`
	VaccinationID uuid.UUID       `json:"vaccination_id"`
	VaccineName   string          `json:"vaccine_name"`
	DueDate       civil.Date      `json:"due_date"`
	ReminderType  ReminderType    `json:"reminder_type"`
	Channel       ReminderChannel `json:"channel"`
	Recipient     string          `json:"recipient"`
	Message       string          `json:"message"`
	Timestamp     time.Time       `json:"timestamp"`
}

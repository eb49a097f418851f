package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReminderService implements reminder settings, per-child reminder listings
// and the periodic reminder sweep
type ReminderService struct {
	childRepo       ports.ChildRepository
	vaccinationRepo ports.VaccinationRepository
	reminderRepo    ports.ReminderRepository
	publisher       ports.ReminderPublisher
	logger          *zap.Logger
	now             Clock
}

// NewReminderService creates a new reminder service
func NewReminderService(
	childRepo ports.ChildRepository,
	vaccinationRepo ports.VaccinationRepository,
	reminderRepo ports.ReminderRepository,
	publisher ports.ReminderPublisher,
	logger *zap.Logger,
) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		childRepo:       childRepo,
		vaccinationRepo: vaccinationRepo,
		reminderRepo:    reminderRepo,
		publisher:       publisher,
		logger:          logger,
		now:             time.Now,
	}
}

// WithClock replaces the clock used for timestamps
func (s *ReminderService) WithClock(now Clock) *ReminderService {
	s.now = now
	return s
}

// GetSettings returns the saved settings of a child or the defaults
func (s *ReminderService) GetSettings(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.ReminderSettings, error) {
	if _, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, readAccess); err != nil {
		return nil, err
	}

	settings, err := s.reminderRepo.GetReminderSettings(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder settings: %w", err)
	}
	if settings == nil {
		return domain.DefaultReminderSettings(childID), nil
	}
	return settings, nil
}

// SaveSettings stores the reminder settings of a child
// An enabled channel needs a destination
func (s *ReminderService) SaveSettings(ctx context.Context, childID uuid.UUID, req ports.ReminderSettingsRequest, userID uuid.UUID, isAdmin bool) (*domain.ReminderSettings, error) {
	email := strings.TrimSpace(req.EmailAddress)
	phone := strings.TrimSpace(req.PhoneNumber)
	if req.EmailEnabled && !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email_address is required when email reminders are enabled", domain.ErrInvalidInput)
	}
	if req.SMSEnabled && phone == "" {
		return nil, fmt.Errorf("%w: phone_number is required when SMS reminders are enabled", domain.ErrInvalidInput)
	}

	if _, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, writeAccess); err != nil {
		return nil, err
	}

	settings := &domain.ReminderSettings{
		ChildID:         childID,
		EmailEnabled:    req.EmailEnabled,
		EmailAddress:    email,
		SMSEnabled:      req.SMSEnabled,
		PhoneNumber:     phone,
		SevenDaysBefore: req.SevenDaysBefore,
		OneDayBefore:    req.OneDayBefore,
		OnDueDate:       req.OnDueDate,
		UpdatedAt:       s.now(),
	}
	if err := s.reminderRepo.SaveReminderSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save reminder settings: %w", err)
	}
	return settings, nil
}

// DueReminders lists reminders for the non-completed doses of a child as of
// ref: due in 7 days, due tomorrow, due today, or overdue
func (s *ReminderService) DueReminders(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, ref civil.Date) ([]domain.Reminder, error) {
	if _, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, readAccess); err != nil {
		return nil, err
	}

	vaccinations, err := s.vaccinationRepo.ListVaccinations(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccinations: %w", err)
	}

	reminders := []domain.Reminder{}
	for _, v := range vaccinations {
		if v.IsCompleted() {
			continue
		}
		days := v.DueDate.DaysSince(ref)
		reminderType, ok := reminderTypeFor(days)
		if !ok {
			continue
		}
		reminders = append(reminders, domain.Reminder{
			VaccinationID: v.ID,
			VaccineName:   v.VaccineName,
			DueDate:       v.DueDate,
			DaysUntilDue:  days,
			ReminderType:  reminderType,
			Message:       ReminderMessage(v.VaccineName, v.DueDate, days),
		})
	}
	return reminders, nil
}

// Sweep publishes the reminders due on ref for every child with reminders
// enabled. Reminders already recorded for a dose, type and channel are
// skipped. A failing reminder is logged and counted; it never aborts the
// sweep.
func (s *ReminderService) Sweep(ctx context.Context, ref civil.Date) (*ports.SweepResult, error) {
	all, err := s.reminderRepo.ListReminderSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder settings: %w", err)
	}

	result := &ports.SweepResult{}
	for _, settings := range all {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.sweepChild(ctx, settings, ref, result)
	}

	s.logger.Info("Reminder sweep finished",
		zap.String("reference_date", ref.String()),
		zap.Int("published", result.Published),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *ReminderService) sweepChild(ctx context.Context, settings *domain.ReminderSettings, ref civil.Date, result *ports.SweepResult) {
	channels := enabledChannels(settings)
	if len(channels) == 0 {
		return
	}

	logger := s.logger.With(zap.String("child_id", settings.ChildID.String()))

	child, err := s.childRepo.GetChildByID(ctx, settings.ChildID)
	if err != nil {
		logger.Error("Failed to load child for reminders", zap.Error(err))
		result.Failed++
		return
	}
	vaccinations, err := s.vaccinationRepo.ListVaccinations(ctx, child.ID)
	if err != nil {
		logger.Error("Failed to list vaccinations for reminders", zap.Error(err))
		result.Failed++
		return
	}

	for _, v := range vaccinations {
		if v.IsCompleted() {
			continue
		}
		days := v.DueDate.DaysSince(ref)
		reminderType, ok := reminderTypeFor(days)
		if !ok || !settings.Wants(reminderType) {
			continue
		}

		sent, err := s.reminderRepo.ListSentReminders(ctx, v.ID)
		if err != nil {
			logger.Error("Failed to list sent reminders",
				zap.String("vaccination_id", v.ID.String()),
				zap.Error(err),
			)
			result.Failed++
			continue
		}

		for _, ch := range channels {
			if alreadySent(sent, reminderType, ch.channel) {
				result.Skipped++
				continue
			}

			event := &domain.ReminderEvent{
				ChildID:       child.ID,
				ChildName:     child.Name,
				VaccinationID: v.ID,
				VaccineName:   v.VaccineName,
				DueDate:       v.DueDate,
				ReminderType:  reminderType,
				Channel:       ch.channel,
				Recipient:     ch.recipient,
				Message:       ReminderMessage(v.VaccineName, v.DueDate, days),
				Timestamp:     s.now(),
			}
			if err := s.publisher.PublishReminder(ctx, event); err != nil {
				logger.Error("Failed to publish reminder",
					zap.String("vaccination_id", v.ID.String()),
					zap.String("reminder_type", string(reminderType)),
					zap.String("channel", string(ch.channel)),
					zap.Error(err),
				)
				result.Failed++
				continue
			}
			result.Published++

			record := &domain.SentReminder{
				ID:            uuid.New(),
				VaccinationID: v.ID,
				ReminderType:  reminderType,
				Channel:       ch.channel,
				SentAt:        event.Timestamp,
			}
			if err := s.reminderRepo.RecordSentReminder(ctx, record); err != nil {
				// Published but not recorded: the next sweep on the same day resends it
				logger.Warn("Failed to record sent reminder",
					zap.String("vaccination_id", v.ID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

type channelTarget struct {
	channel   domain.ReminderChannel
	recipient string
}

func enabledChannels(settings *domain.ReminderSettings) []channelTarget {
	var out []channelTarget
	if settings.EmailEnabled && settings.EmailAddress != "" {
		out = append(out, channelTarget{channel: domain.ChannelEmail, recipient: settings.EmailAddress})
	}
	if settings.SMSEnabled && settings.PhoneNumber != "" {
		out = append(out, channelTarget{channel: domain.ChannelSMS, recipient: settings.PhoneNumber})
	}
	return out
}

func alreadySent(sent []*domain.SentReminder, reminderType domain.ReminderType, channel domain.ReminderChannel) bool {
	for _, r := range sent {
		if r.ReminderType == reminderType && r.Channel == channel {
			return true
		}
	}
	return false
}

// reminderTypeFor maps days until due to a reminder window
func reminderTypeFor(daysUntilDue int) (domain.ReminderType, bool) {
	switch {
	case daysUntilDue == 7:
		return domain.ReminderSevenDays, true
	case daysUntilDue == 1:
		return domain.ReminderOneDay, true
	case daysUntilDue == 0:
		return domain.ReminderOnDay, true
	case daysUntilDue < 0:
		return domain.ReminderOverdue, true
	default:
		return "", false
	}
}

// ReminderMessage renders the reminder text of a dose due in daysUntilDue days
func ReminderMessage(vaccineName string, due civil.Date, daysUntilDue int) string {
	dueText := due.In(time.UTC).Format("January 02, 2006")
	switch {
	case daysUntilDue < 0:
		return fmt.Sprintf("OVERDUE: %s was due on %s (%d days ago)", vaccineName, dueText, -daysUntilDue)
	case daysUntilDue == 0:
		return fmt.Sprintf("Reminder: %s is due today!", vaccineName)
	case daysUntilDue == 1:
		return fmt.Sprintf("Reminder: %s is due tomorrow (%s)", vaccineName, dueText)
	default:
		return fmt.Sprintf("Reminder: %s is due in %d days (%s)", vaccineName, daysUntilDue, dueText)
	}
}

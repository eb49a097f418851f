package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/google/uuid"
)

const reminderSettingsColumns = `child_id, email_enabled, email_address, sms_enabled, phone_number,
	reminder_7_days, reminder_1_day, reminder_on_day, updated_at`

func scanReminderSettings(s scanner) (*domain.ReminderSettings, error) {
	var rs domain.ReminderSettings
	var email, phone sql.NullString
	if err := s.Scan(&rs.ChildID, &rs.EmailEnabled, &email, &rs.SMSEnabled, &phone,
		&rs.SevenDaysBefore, &rs.OneDayBefore, &rs.OnDueDate, &rs.UpdatedAt); err != nil {
		return nil, err
	}
	rs.EmailAddress = email.String
	rs.PhoneNumber = phone.String
	return &rs, nil
}

// ReminderRepository implementation

// GetReminderSettings returns nil, nil when the child has no saved settings
func (r *SQLRepository) GetReminderSettings(ctx context.Context, childID uuid.UUID) (*domain.ReminderSettings, error) {
	result, err := r.reminderCB.Execute(func() (interface{}, error) {
		var settings *domain.ReminderSettings
		err := r.executeWithRetry(ctx, func() error {
			var scanErr error
			row := r.db.QueryRowContext(ctx, `SELECT `+reminderSettingsColumns+` FROM reminder_settings WHERE child_id = $1`, childID)
			settings, scanErr = scanReminderSettings(row)
			return scanErr
		})
		if err != nil {
			return nil, err
		}
		return settings, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return result.(*domain.ReminderSettings), nil
}

// SaveReminderSettings upserts the settings of a child
func (r *SQLRepository) SaveReminderSettings(ctx context.Context, s *domain.ReminderSettings) error {
	_, err := r.reminderCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO reminder_settings (` + reminderSettingsColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (child_id) DO UPDATE SET
					email_enabled = EXCLUDED.email_enabled,
					email_address = EXCLUDED.email_address,
					sms_enabled = EXCLUDED.sms_enabled,
					phone_number = EXCLUDED.phone_number,
					reminder_7_days = EXCLUDED.reminder_7_days,
					reminder_1_day = EXCLUDED.reminder_1_day,
					reminder_on_day = EXCLUDED.reminder_on_day,
					updated_at = EXCLUDED.updated_at`
			_, err := r.db.ExecContext(ctx, query,
				s.ChildID, s.EmailEnabled, nullStringArg(s.EmailAddress), s.SMSEnabled, nullStringArg(s.PhoneNumber),
				s.SevenDaysBefore, s.OneDayBefore, s.OnDueDate, s.UpdatedAt,
			)
			return err
		})
	})
	return err
}

// ListReminderSettings returns the settings of every child with at least one
// channel enabled
func (r *SQLRepository) ListReminderSettings(ctx context.Context) ([]*domain.ReminderSettings, error) {
	result, err := r.reminderCB.Execute(func() (interface{}, error) {
		var all []*domain.ReminderSettings
		err := r.executeWithRetry(ctx, func() error {
			all = []*domain.ReminderSettings{}
			rows, err := r.db.QueryContext(ctx,
				`SELECT `+reminderSettingsColumns+` FROM reminder_settings WHERE email_enabled OR sms_enabled ORDER BY child_id`)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				s, err := scanReminderSettings(rows)
				if err != nil {
					return err
				}
				all = append(all, s)
			}
			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return all, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.ReminderSettings), nil
}

func (r *SQLRepository) RecordSentReminder(ctx context.Context, sent *domain.SentReminder) error {
	_, err := r.reminderCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			_, err := r.db.ExecContext(ctx,
				`INSERT INTO sent_reminders (id, vaccination_id, reminder_type, channel, sent_at) VALUES ($1, $2, $3, $4, $5)`,
				sent.ID, sent.VaccinationID, string(sent.ReminderType), string(sent.Channel), sent.SentAt,
			)
			return err
		})
	})
	return err
}

func (r *SQLRepository) ListSentReminders(ctx context.Context, vaccinationID uuid.UUID) ([]*domain.SentReminder, error) {
	result, err := r.reminderCB.Execute(func() (interface{}, error) {
		var sent []*domain.SentReminder
		err := r.executeWithRetry(ctx, func() error {
			sent = []*domain.SentReminder{}
			rows, err := r.db.QueryContext(ctx,
				`SELECT id, vaccination_id, reminder_type, channel, sent_at FROM sent_reminders WHERE vaccination_id = $1 ORDER BY sent_at`,
				vaccinationID)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var s domain.SentReminder
				var reminderType, channel string
				if err := rows.Scan(&s.ID, &s.VaccinationID, &reminderType, &channel, &s.SentAt); err != nil {
					return err
				}
				s.ReminderType = domain.ReminderType(reminderType)
				s.Channel = domain.ReminderChannel(channel)
				sent = append(sent, &s)
			}
			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return sent, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.SentReminder), nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/google/uuid"
)

const healthEventColumns = `id, child_id, event_type, event_date, title, description, severity, symptoms,
	treatment, doctor_name, hospital_clinic, created_at`

func scanHealthEvent(s scanner) (*domain.HealthEvent, error) {
	var e domain.HealthEvent
	var eventDate time.Time
	var description, severity, symptoms, treatment, doctor, clinic sql.NullString
	if err := s.Scan(&e.ID, &e.ChildID, &e.EventType, &eventDate, &e.Title, &description, &severity,
		&symptoms, &treatment, &doctor, &clinic, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.EventDate = civil.DateOf(eventDate)
	e.Description = description.String
	e.Severity = severity.String
	e.Symptoms = symptoms.String
	e.Treatment = treatment.String
	e.DoctorName = doctor.String
	e.HospitalClinic = clinic.String
	return &e, nil
}

// HealthEventRepository implementation

func (r *SQLRepository) CreateHealthEvent(ctx context.Context, e *domain.HealthEvent) error {
	_, err := r.eventCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO health_events (` + healthEventColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
			_, err := r.db.ExecContext(ctx, query,
				e.ID, e.ChildID, e.EventType, dateArg(e.EventDate), e.Title,
				nullStringArg(e.Description), nullStringArg(e.Severity), nullStringArg(e.Symptoms),
				nullStringArg(e.Treatment), nullStringArg(e.DoctorName), nullStringArg(e.HospitalClinic),
				e.CreatedAt,
			)
			return err
		})
	})
	return err
}

// ListHealthEvents returns the events of a child, newest first
func (r *SQLRepository) ListHealthEvents(ctx context.Context, childID uuid.UUID, eventType *string) ([]*domain.HealthEvent, error) {
	result, err := r.eventCB.Execute(func() (interface{}, error) {
		var events []*domain.HealthEvent
		err := r.executeWithRetry(ctx, func() error {
			events = []*domain.HealthEvent{}
			query := `SELECT ` + healthEventColumns + ` FROM health_events WHERE child_id = $1`
			args := []interface{}{childID}

			// Add type filter if provided
			if eventType != nil {
				query += ` AND event_type = $2`
				args = append(args, *eventType)
			}
			query += ` ORDER BY event_date DESC, created_at DESC`

			rows, err := r.db.QueryContext(ctx, query, args...)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				e, err := scanHealthEvent(rows)
				if err != nil {
					return err
				}
				events = append(events, e)
			}
			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return events, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.HealthEvent), nil
}

func (r *SQLRepository) GetHealthEventByID(ctx context.Context, eventID uuid.UUID) (*domain.HealthEvent, error) {
	result, err := r.eventCB.Execute(func() (interface{}, error) {
		var e *domain.HealthEvent
		err := r.executeWithRetry(ctx, func() error {
			var scanErr error
			row := r.db.QueryRowContext(ctx, `SELECT `+healthEventColumns+` FROM health_events WHERE id = $1`, eventID)
			e, scanErr = scanHealthEvent(row)
			return scanErr
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHealthEventNotFound
		}
		return nil, err
	}

	return result.(*domain.HealthEvent), nil
}

func (r *SQLRepository) DeleteHealthEvent(ctx context.Context, eventID uuid.UUID) error {
	_, err := r.eventCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			res, err := r.db.ExecContext(ctx, `DELETE FROM health_events WHERE id = $1`, eventID)
			if err != nil {
				return err
			}
			return expectAffected(res)
		})
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrHealthEventNotFound
	}
	return err
}

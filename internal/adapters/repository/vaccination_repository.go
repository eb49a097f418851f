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

const vaccinationColumns = `id, child_id, vaccine_name, vaccine_code, due_date, status, administered_date,
	notes, administered_by, batch_number, created_at, updated_at`

const insertVaccination = `INSERT INTO vaccinations (` + vaccinationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func scanVaccination(s scanner) (*domain.ScheduledVaccination, error) {
	var v domain.ScheduledVaccination
	var due time.Time
	var status string
	var administered sql.NullTime
	var code, notes, administeredBy, batch sql.NullString
	if err := s.Scan(&v.ID, &v.ChildID, &v.VaccineName, &code, &due, &status, &administered,
		&notes, &administeredBy, &batch, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.VaccineCode = code.String
	v.DueDate = civil.DateOf(due)
	v.Status = domain.VaccinationStatus(status)
	v.AdministeredDate = dateFromNullTime(administered)
	v.Notes = notes.String
	v.AdministeredBy = administeredBy.String
	v.BatchNumber = batch.String
	return &v, nil
}

func insertVaccinations(ctx context.Context, tx *sql.Tx, vaccinations []*domain.ScheduledVaccination) error {
	stmt, err := tx.PrepareContext(ctx, insertVaccination)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range vaccinations {
		if _, err := stmt.ExecContext(ctx,
			v.ID, v.ChildID, v.VaccineName, nullStringArg(v.VaccineCode), dateArg(v.DueDate), string(v.Status),
			nullDateArg(v.AdministeredDate), nullStringArg(v.Notes), nullStringArg(v.AdministeredBy),
			nullStringArg(v.BatchNumber), v.CreatedAt, v.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

// VaccinationRepository implementation

// CreateVaccinations inserts all rows in one transaction
func (r *SQLRepository) CreateVaccinations(ctx context.Context, vaccinations []*domain.ScheduledVaccination) error {
	if len(vaccinations) == 0 {
		return nil
	}
	_, err := r.vaccinationCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			return r.withTx(ctx, func(tx *sql.Tx) error {
				return insertVaccinations(ctx, tx, vaccinations)
			})
		})
	})
	return err
}

// ListVaccinations returns the rows of a child ordered by due date
func (r *SQLRepository) ListVaccinations(ctx context.Context, childID uuid.UUID) ([]*domain.ScheduledVaccination, error) {
	result, err := r.vaccinationCB.Execute(func() (interface{}, error) {
		var vaccinations []*domain.ScheduledVaccination
		err := r.executeWithRetry(ctx, func() error {
			vaccinations = []*domain.ScheduledVaccination{}
			rows, err := r.db.QueryContext(ctx,
				`SELECT `+vaccinationColumns+` FROM vaccinations WHERE child_id = $1 ORDER BY due_date, created_at, id`, childID)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				v, err := scanVaccination(rows)
				if err != nil {
					return err
				}
				vaccinations = append(vaccinations, v)
			}
			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return vaccinations, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.ScheduledVaccination), nil
}

func (r *SQLRepository) GetVaccinationByID(ctx context.Context, vaccinationID uuid.UUID) (*domain.ScheduledVaccination, error) {
	result, err := r.vaccinationCB.Execute(func() (interface{}, error) {
		var v *domain.ScheduledVaccination
		err := r.executeWithRetry(ctx, func() error {
			var scanErr error
			row := r.db.QueryRowContext(ctx, `SELECT `+vaccinationColumns+` FROM vaccinations WHERE id = $1`, vaccinationID)
			v, scanErr = scanVaccination(row)
			return scanErr
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVaccinationNotFound
		}
		return nil, err
	}

	return result.(*domain.ScheduledVaccination), nil
}

// UpdateVaccinationStatus persists status and completion details of a row
func (r *SQLRepository) UpdateVaccinationStatus(ctx context.Context, v *domain.ScheduledVaccination) error {
	_, err := r.vaccinationCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `UPDATE vaccinations SET status = $2, administered_date = $3, notes = $4,
				administered_by = $5, batch_number = $6, updated_at = $7 WHERE id = $1`
			res, err := r.db.ExecContext(ctx, query,
				v.ID, string(v.Status), nullDateArg(v.AdministeredDate), nullStringArg(v.Notes),
				nullStringArg(v.AdministeredBy), nullStringArg(v.BatchNumber), v.UpdatedAt,
			)
			if err != nil {
				return err
			}
			return expectAffected(res)
		})
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrVaccinationNotFound
	}
	return err
}

// ReplaceSchedule deletes every row of a child and inserts the new ones in
// one transaction
func (r *SQLRepository) ReplaceSchedule(ctx context.Context, childID uuid.UUID, vaccinations []*domain.ScheduledVaccination) error {
	_, err := r.vaccinationCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			return r.withTx(ctx, func(tx *sql.Tx) error {
				if _, err := tx.ExecContext(ctx, `DELETE FROM vaccinations WHERE child_id = $1`, childID); err != nil {
					return err
				}
				if len(vaccinations) == 0 {
					return nil
				}
				return insertVaccinations(ctx, tx, vaccinations)
			})
		})
	})
	return err
}

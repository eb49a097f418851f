package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const childColumns = `id, parent_user_id, name, date_of_birth, guideline, gender, blood_group, allergies, created_at, updated_at`

func scanChild(s scanner) (*domain.Child, error) {
	var c domain.Child
	var dob time.Time
	var gender, bloodGroup, allergies sql.NullString
	if err := s.Scan(&c.ID, &c.ParentUserID, &c.Name, &dob, &c.Guideline, &gender, &bloodGroup, &allergies, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.DateOfBirth = civil.DateOf(dob)
	c.Gender = gender.String
	c.BloodGroup = bloodGroup.String
	c.Allergies = allergies.String
	return &c, nil
}

// ChildRepository implementation

func (r *SQLRepository) CreateChild(ctx context.Context, child *domain.Child) error {
	_, err := r.childCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO children (` + childColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
			_, err := r.db.ExecContext(ctx, query,
				child.ID, child.ParentUserID, child.Name, dateArg(child.DateOfBirth), child.Guideline,
				nullStringArg(child.Gender), nullStringArg(child.BloodGroup), nullStringArg(child.Allergies),
				child.CreatedAt, child.UpdatedAt,
			)
			return err
		})
	})
	return err
}

func (r *SQLRepository) GetChildByID(ctx context.Context, childID uuid.UUID) (*domain.Child, error) {
	result, err := r.childCB.Execute(func() (interface{}, error) {
		var child *domain.Child
		err := r.executeWithRetry(ctx, func() error {
			var scanErr error
			row := r.db.QueryRowContext(ctx, `SELECT `+childColumns+` FROM children WHERE id = $1`, childID)
			child, scanErr = scanChild(row)
			return scanErr
		})
		if err != nil {
			return nil, err
		}
		return child, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrChildNotFound
		}
		return nil, err
	}

	return result.(*domain.Child), nil
}

func (r *SQLRepository) ListChildren(ctx context.Context, parentUserID uuid.UUID, isAdmin bool) ([]*domain.Child, error) {
	result, err := r.childCB.Execute(func() (interface{}, error) {
		var children []*domain.Child
		err := r.executeWithRetry(ctx, func() error {
			children = []*domain.Child{}
			var rows *sql.Rows
			var queryErr error

			if isAdmin {
				// ADMIN can see all children
				rows, queryErr = r.db.QueryContext(ctx, `SELECT `+childColumns+` FROM children ORDER BY created_at DESC`)
			} else {
				// PARENT can only see their own children
				rows, queryErr = r.db.QueryContext(ctx, `SELECT `+childColumns+` FROM children WHERE parent_user_id = $1 ORDER BY created_at DESC`, parentUserID)
			}

			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				child, err := scanChild(rows)
				if err != nil {
					return err
				}
				children = append(children, child)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return children, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.Child), nil
}

func (r *SQLRepository) UpdateChild(ctx context.Context, child *domain.Child) error {
	_, err := r.childCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `UPDATE children SET name = $2, date_of_birth = $3, guideline = $4, gender = $5,
				blood_group = $6, allergies = $7, updated_at = $8 WHERE id = $1`
			res, err := r.db.ExecContext(ctx, query,
				child.ID, child.Name, dateArg(child.DateOfBirth), child.Guideline,
				nullStringArg(child.Gender), nullStringArg(child.BloodGroup), nullStringArg(child.Allergies),
				child.UpdatedAt,
			)
			if err != nil {
				return err
			}
			return expectAffected(res)
		})
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrChildNotFound
	}
	return err
}

// DeleteChild deletes a child; dependent rows are removed by ON DELETE CASCADE
func (r *SQLRepository) DeleteChild(ctx context.Context, childID uuid.UUID) error {
	_, err := r.childCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			res, err := r.db.ExecContext(ctx, `DELETE FROM children WHERE id = $1`, childID)
			if err != nil {
				return err
			}
			return expectAffected(res)
		})
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrChildNotFound
	}
	return err
}

func (r *SQLRepository) ChildExists(ctx context.Context, childID uuid.UUID) (bool, error) {
	return r.count(ctx, r.childCB, `SELECT COUNT(*) FROM children WHERE id = $1`, childID)
}

func (r *SQLRepository) CheckChildOwnership(ctx context.Context, childID uuid.UUID, parentUserID uuid.UUID) (bool, error) {
	return r.count(ctx, r.childCB, `SELECT COUNT(*) FROM children WHERE id = $1 AND parent_user_id = $2`, childID, parentUserID)
}

// count reports whether a COUNT(*) query returns a positive number
func (r *SQLRepository) count(ctx context.Context, cb *gobreaker.CircuitBreaker, query string, args ...any) (bool, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		var found bool
		err := r.executeWithRetry(ctx, func() error {
			var n int
			err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
			found = n > 0
			return err
		})
		if err != nil {
			return nil, err
		}
		return found, nil
	})

	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

// expectAffected turns an update or delete that touched no row into sql.ErrNoRows
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/sony/gobreaker"
)

// SQLRepository implements the child, vaccination, health event and reminder
// repositories using PostgreSQL
// Includes retry logic and circuit breaker for resilience
type SQLRepository struct {
	db            *sql.DB
	childCB       *gobreaker.CircuitBreaker
	vaccinationCB *gobreaker.CircuitBreaker
	eventCB       *gobreaker.CircuitBreaker
	reminderCB    *gobreaker.CircuitBreaker
	maxRetries    int
	retryDelay    time.Duration
}

// NewSQLRepository creates a new PostgreSQL repository with one circuit
// breaker per table group
func NewSQLRepository(db *sql.DB, settings gobreaker.Settings) *SQLRepository {
	named := func(name string) *gobreaker.CircuitBreaker {
		s := settings
		s.Name = "database:" + name
		return gobreaker.NewCircuitBreaker(s)
	}

	return &SQLRepository{
		db:            db,
		childCB:       named("children"),
		vaccinationCB: named("vaccinations"),
		eventCB:       named("health_events"),
		reminderCB:    named("reminders"),
		maxRetries:    3,
		retryDelay:    1 * time.Second,
	}
}

// WithRetryPolicy overrides the retry attempts and delay
func (r *SQLRepository) WithRetryPolicy(maxRetries int, retryDelay time.Duration) *SQLRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	r.maxRetries = maxRetries
	r.retryDelay = retryDelay
	return r
}

// executeWithRetry executes a database operation with retry logic
func (r *SQLRepository) executeWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	for i := 0; i < r.maxRetries; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err
		// Don't retry on sql.ErrNoRows - it's not a transient error
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if i < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", r.maxRetries, lastErr)
}

// withTx runs fn in a transaction, rolling back on error
func (r *SQLRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// Dates travel as ISO-8601 strings and come back as time.Time from DATE columns

func dateArg(d civil.Date) string {
	return d.String()
}

func nullDateArg(d *civil.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullStringArg(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dateFromNullTime(t sql.NullTime) *civil.Date {
	if !t.Valid {
		return nil
	}
	d := civil.DateOf(t.Time)
	return &d
}

// Ensure SQLRepository implements the interfaces
var (
	_ ports.ChildRepository       = (*SQLRepository)(nil)
	_ ports.VaccinationRepository = (*SQLRepository)(nil)
	_ ports.HealthEventRepository = (*SQLRepository)(nil)
	_ ports.ReminderRepository    = (*SQLRepository)(nil)
)

package schedule

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/domain"
)

// Categories partitions doses into the four display buckets
type Categories = domain.VaccinationCategories

// Classify returns the bucket of a single dose as of ref.
// Due today and due in exactly 30 days are both upcoming.
func Classify(status domain.VaccinationStatus, due, ref civil.Date) domain.Bucket {
	switch {
	case status == domain.VaccinationStatusCompleted:
		return domain.BucketCompleted
	case due.Before(ref):
		return domain.BucketOverdue
	case !due.After(ref.AddDays(domain.UpcomingWindowDays)):
		return domain.BucketUpcoming
	default:
		return domain.BucketPending
	}
}

// Categorize buckets every dose as of ref. Empty input yields four empty
// buckets.
func Categorize(vaccinations []*domain.ScheduledVaccination, ref civil.Date) Categories {
	c := Categories{
		Overdue:   []*domain.ScheduledVaccination{},
		Upcoming:  []*domain.ScheduledVaccination{},
		Completed: []*domain.ScheduledVaccination{},
		Pending:   []*domain.ScheduledVaccination{},
	}
	for _, v := range vaccinations {
		switch Classify(v.Status, v.DueDate, ref) {
		case domain.BucketCompleted:
			c.Completed = append(c.Completed, v)
		case domain.BucketOverdue:
			c.Overdue = append(c.Overdue, v)
		case domain.BucketUpcoming:
			c.Upcoming = append(c.Upcoming, v)
		default:
			c.Pending = append(c.Pending, v)
		}
	}
	return c
}

// Record is a loosely typed dose as handed over by external callers
type Record = map[string]any

// RecordCategories is the Categories counterpart for loose records
type RecordCategories struct {
	Overdue   []Record `json:"overdue"`
	Upcoming  []Record `json:"upcoming"`
	Completed []Record `json:"completed"`
	Pending   []Record `json:"pending"`
}

// CategorizeRecords buckets loose records whose "due_date" is an ISO-8601
// string, a civil.Date or a time.Time and whose "status" is a string.
// A completed record needs no due date; any date present is still parsed.
// The first unparseable date aborts with an error.
func CategorizeRecords(records []Record, ref civil.Date) (RecordCategories, error) {
	c := RecordCategories{
		Overdue:   []Record{},
		Upcoming:  []Record{},
		Completed: []Record{},
		Pending:   []Record{},
	}
	for i, rec := range records {
		status, _ := rec["status"].(string)
		if domain.VaccinationStatus(status) == domain.VaccinationStatusCompleted {
			if raw := rec["due_date"]; raw != nil && raw != "" {
				if _, err := DateValue(raw); err != nil {
					return RecordCategories{}, fmt.Errorf("record %d: %w", i, err)
				}
			}
			c.Completed = append(c.Completed, rec)
			continue
		}

		due, err := DateValue(rec["due_date"])
		if err != nil {
			return RecordCategories{}, fmt.Errorf("record %d: %w", i, err)
		}

		switch Classify(domain.VaccinationStatus(status), due, ref) {
		case domain.BucketOverdue:
			c.Overdue = append(c.Overdue, rec)
		case domain.BucketUpcoming:
			c.Upcoming = append(c.Upcoming, rec)
		default:
			c.Pending = append(c.Pending, rec)
		}
	}
	return c, nil
}

// DateValue accepts a date as an ISO-8601 string or a native date value
func DateValue(v any) (civil.Date, error) {
	switch d := v.(type) {
	case civil.Date:
		return d, nil
	case *civil.Date:
		if d == nil {
			return civil.Date{}, fmt.Errorf("%w: missing date", domain.ErrInvalidDate)
		}
		return *d, nil
	case time.Time:
		return civil.DateOf(d), nil
	case string:
		return domain.ParseDate(d)
	default:
		return civil.Date{}, fmt.Errorf("%w: unsupported value %v (%T)", domain.ErrInvalidDate, v, v)
	}
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Age is a calendar-aware difference between two dates
type Age struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD)
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return d, nil
}

// Today returns the calendar date of t in UTC
func Today(t time.Time) civil.Date {
	return civil.DateOf(t.UTC())
}

// AgeBetween returns the years, months and days from dob to ref.
// Months are counted first; adding them to dob clamps to the last day of
// the target month, the remaining days are counted from that anchor.
// A dob after ref yields a zero Age.
func AgeBetween(dob, ref civil.Date) Age {
	if !dob.Before(ref) {
		return Age{}
	}

	months := (ref.Year-dob.Year)*12 + int(ref.Month) - int(dob.Month)
	anchor := addMonthsClamped(dob, months)
	for months > 0 && ref.Before(anchor) {
		months--
		anchor = addMonthsClamped(dob, months)
	}

	return Age{
		Years:  months / 12,
		Months: months % 12,
		Days:   ref.DaysSince(anchor),
	}
}

// addMonthsClamped adds n months to d, clamping the day to the month length
func addMonthsClamped(d civil.Date, n int) civil.Date {
	total := d.Year*12 + int(d.Month) - 1 + n
	year, month := total/12, time.Month(total%12+1)
	day := d.Day
	if last := daysIn(year, month); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AgeString renders the age of a child born on dob as of ref, e.g.
// "2 years, 3 months" or "5 days". Days are only shown below one year.
// A zero age is rendered as "Newborn".
func AgeString(dob, ref civil.Date) string {
	age := AgeBetween(dob, ref)

	var parts []string
	if age.Years > 0 {
		parts = append(parts, plural(age.Years, "year"))
	}
	if age.Months > 0 {
		parts = append(parts, plural(age.Months, "month"))
	}
	if age.Days > 0 && age.Years == 0 {
		parts = append(parts, plural(age.Days, "day"))
	}

	if len(parts) == 0 {
		return "Newborn"
	}
	return strings.Join(parts, ", ")
}

func plural(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, unit)
	}
	return fmt.Sprintf("%d %s", n, unit)
}

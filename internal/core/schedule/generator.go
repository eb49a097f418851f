// Package schedule projects guideline catalogs onto a child's date of birth
// and classifies scheduled doses relative to a reference date.
package schedule

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
)

// Generator turns catalog doses into concrete due dates
type Generator struct {
	catalog ports.GuidelineCatalogProvider
}

// NewGenerator creates a generator backed by a catalog provider
func NewGenerator(catalog ports.GuidelineCatalogProvider) *Generator {
	return &Generator{catalog: catalog}
}

// Catalog returns the provider the generator reads from
func (g *Generator) Catalog() ports.GuidelineCatalogProvider {
	return g.catalog
}

// DueDate returns dob plus the given number of 7-day weeks.
// Month labels are not recomputed with calendar months.
func DueDate(dob civil.Date, ageOffsetWeeks int) civil.Date {
	return dob.AddDays(7 * ageOffsetWeeks)
}

// Generate returns one entry per catalog dose of the guideline, in catalog
// order. It does not check that dob lies in the past.
func (g *Generator) Generate(dob civil.Date, guideline string) []domain.ScheduleEntry {
	doses := g.catalog.Doses(guideline)
	entries := make([]domain.ScheduleEntry, 0, len(doses))
	for _, d := range doses {
		entries = append(entries, domain.ScheduleEntry{
			VaccineName:    d.Name,
			VaccineCode:    d.Code,
			DueDate:        DueDate(dob, d.AgeOffsetWeeks),
			AgeOffsetWeeks: d.AgeOffsetWeeks,
			AgeLabel:       d.AgeLabel,
			Description:    d.Description,
			FullName:       d.FullName,
			Doses:          d.Doses,
			Route:          d.Route,
			Notes:          d.Notes,
		})
	}
	return entries
}

// ParseReceivedList splits a free-text, comma separated list of vaccines a
// child already received into lower-cased, trimmed names
func ParseReceivedList(text string) []string {
	var received []string
	for _, part := range strings.Split(text, ",") {
		if name := strings.ToLower(strings.TrimSpace(part)); name != "" {
			received = append(received, name)
		}
	}
	return received
}

// MatchesReceived reports whether an entry was already received. A received
// name matches when it is contained in the vaccine name, contains the
// vaccine name, or is contained in the vaccine code (case-insensitive).
func MatchesReceived(entry domain.ScheduleEntry, received []string) bool {
	name := strings.ToLower(entry.VaccineName)
	code := strings.ToLower(entry.VaccineCode)
	for _, recv := range received {
		recv = strings.ToLower(recv)
		if strings.Contains(name, recv) || strings.Contains(recv, name) || strings.Contains(code, recv) {
			return true
		}
	}
	return false
}

// Package catalog provides the vaccine dose tables of each supported
// guideline, either from built-in tables or from JSON resources.
package catalog

import (
	"slices"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
)

// table is an immutable guideline catalog keyed by guideline name
type table struct {
	order  []string
	byName map[string][]domain.VaccineDoseDefinition
}

func newTable() *table {
	return &table{byName: make(map[string][]domain.VaccineDoseDefinition)}
}

// add stores a guideline's doses stable-sorted by age offset
func (t *table) add(guideline string, doses []domain.VaccineDoseDefinition) {
	sorted := slices.Clone(doses)
	slices.SortStableFunc(sorted, func(a, b domain.VaccineDoseDefinition) int {
		return a.AgeOffsetWeeks - b.AgeOffsetWeeks
	})
	if _, exists := t.byName[guideline]; !exists {
		t.order = append(t.order, guideline)
	}
	t.byName[guideline] = sorted
}

func (t *table) Guidelines() []string {
	return slices.Clone(t.order)
}

func (t *table) IsKnown(guideline string) bool {
	_, ok := t.byName[guideline]
	return ok
}

// Doses returns a copy so callers cannot mutate the catalog
func (t *table) Doses(guideline string) []domain.VaccineDoseDefinition {
	src := t.resolve(guideline)
	out := make([]domain.VaccineDoseDefinition, len(src))
	copy(out, src)
	return out
}

// resolve applies the unknown-guideline policy: fall back to
// domain.DefaultGuideline, or nothing if that is missing too
func (t *table) resolve(guideline string) []domain.VaccineDoseDefinition {
	if doses, ok := t.byName[guideline]; ok {
		return doses
	}
	return t.byName[domain.DefaultGuideline]
}

// Ensure both providers implement the interface
var _ ports.GuidelineCatalogProvider = (*StaticCatalog)(nil)
var _ ports.GuidelineCatalogProvider = (*JSONCatalog)(nil)

package catalog_test

import (
	"testing"
	"testing/fstest"

	"github.com/IANDYI/immunization-service/internal/core/catalog"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCatalog_Guidelines(t *testing.T) {
	c := catalog.NewStaticCatalog()

	assert.Equal(t, []string{domain.GuidelineIndiaUIP, domain.GuidelineWHO, domain.GuidelineCDC}, c.Guidelines())
	assert.Len(t, c.Doses(domain.GuidelineIndiaUIP), 28)
	assert.Len(t, c.Doses(domain.GuidelineWHO), 27)
	assert.Len(t, c.Doses(domain.GuidelineCDC), 35)
}

func TestStaticCatalog_DosesAreChronological(t *testing.T) {
	c := catalog.NewStaticCatalog()

	for _, g := range c.Guidelines() {
		doses := c.Doses(g)
		for i := 1; i < len(doses); i++ {
			assert.LessOrEqual(t, doses[i-1].AgeOffsetWeeks, doses[i].AgeOffsetWeeks, "guideline %s index %d", g, i)
		}
	}
}

func TestStaticCatalog_StableOrderForEqualOffsets(t *testing.T) {
	doses := catalog.NewStaticCatalog().Doses(domain.GuidelineCDC)

	var at572 []string
	for _, d := range doses {
		if d.AgeOffsetWeeks == 572 {
			at572 = append(at572, d.Code)
		}
	}
	assert.Equal(t, []string{"TDAP", "HPV1", "MCV1"}, at572)

	// HPV-2 (598 weeks) is stored before Meningococcal-1 but sorts after it
	assert.Equal(t, "HPV2", doses[len(doses)-2].Code)
	assert.Equal(t, "MCV2", doses[len(doses)-1].Code)
}

func TestStaticCatalog_NineMonthsIsThirtyNineWeeks(t *testing.T) {
	c := catalog.NewStaticCatalog()

	for _, g := range []string{domain.GuidelineIndiaUIP, domain.GuidelineWHO} {
		found := false
		for _, d := range c.Doses(g) {
			if d.AgeLabel == "9 Months" {
				found = true
				assert.Equal(t, 39, d.AgeOffsetWeeks, "%s %s", g, d.Name)
			}
		}
		assert.True(t, found, g)
	}
}

func TestStaticCatalog_UnknownGuidelineFallsBackToWHO(t *testing.T) {
	c := catalog.NewStaticCatalog()

	assert.False(t, c.IsKnown("Atlantis"))
	assert.True(t, c.IsKnown(domain.GuidelineWHO))
	assert.Equal(t, c.Doses(domain.GuidelineWHO), c.Doses("Atlantis"))
	assert.Equal(t, c.Doses(domain.GuidelineWHO), c.Doses(""))
}

func TestStaticCatalog_DosesReturnsCopy(t *testing.T) {
	c := catalog.NewStaticCatalog()

	doses := c.Doses(domain.GuidelineWHO)
	doses[0].Name = "mutated"
	doses[0].AgeOffsetWeeks = 999

	fresh := c.Doses(domain.GuidelineWHO)
	assert.Equal(t, "BCG", fresh[0].Name)
	assert.Equal(t, 0, fresh[0].AgeOffsetWeeks)
}

func TestEmbeddedJSONCatalog(t *testing.T) {
	c, err := catalog.EmbeddedJSONCatalog()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{domain.GuidelineIndiaUIP, domain.GuidelineWHO}, c.Guidelines())
	assert.Equal(t, len(catalog.NewStaticCatalog().Doses(domain.GuidelineWHO)), len(c.Doses(domain.GuidelineWHO)))

	india := c.Doses(domain.GuidelineIndiaUIP)
	require.NotEmpty(t, india)
	// india_uip.json carries "id" instead of "code"
	assert.Equal(t, "BCG", india[0].Code)
	assert.NotEmpty(t, india[0].Route)

	info, ok := c.Info(domain.GuidelineWHO)
	require.True(t, ok)
	assert.Equal(t, 27, info.DoseCount)
	assert.NotEmpty(t, info.Source)
}

func TestEmbeddedJSONCatalog_MatchesStaticOffsets(t *testing.T) {
	jsonCatalog, err := catalog.EmbeddedJSONCatalog()
	require.NoError(t, err)
	static := catalog.NewStaticCatalog()

	for _, g := range jsonCatalog.Guidelines() {
		fromJSON := jsonCatalog.Doses(g)
		fromStatic := static.Doses(g)
		require.Len(t, fromJSON, len(fromStatic), g)
		for i := range fromJSON {
			assert.Equal(t, fromStatic[i].Code, fromJSON[i].Code)
			assert.Equal(t, fromStatic[i].AgeOffsetWeeks, fromJSON[i].AgeOffsetWeeks)
		}
	}
}

func TestLoadJSONCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		"custom.json": {Data: []byte(`{
			"source": "clinic",
			"vaccines": [
				{"name": "Late", "code": "L1", "id": "ignored", "age_weeks": 10, "age_label": "10 Weeks"},
				{"name": "Early", "id": "E1", "age_weeks": 2, "age_label": "2 Weeks", "doses": 2}
			]
		}`)},
		"README.md": {Data: []byte("not a guideline")},
	}

	c, err := catalog.LoadJSONCatalog(fsys)
	require.NoError(t, err)

	assert.Equal(t, []string{"custom"}, c.Guidelines())
	doses := c.Doses("custom")
	require.Len(t, doses, 2)
	assert.Equal(t, "E1", doses[0].Code)
	assert.Equal(t, 2, doses[0].Doses)
	assert.Equal(t, "L1", doses[1].Code)

	// No WHO table loaded: unknown keys resolve to nothing
	assert.Empty(t, c.Doses("WHO"))
	assert.NotNil(t, c.Doses("WHO"))
}

func TestLoadJSONCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{
			name: "no files",
			fsys: fstest.MapFS{},
		},
		{
			name: "malformed json",
			fsys: fstest.MapFS{"bad.json": {Data: []byte(`{"vaccines": [`)}},
		},
		{
			name: "negative offset",
			fsys: fstest.MapFS{"neg.json": {Data: []byte(`{"vaccines": [{"name": "X", "code": "X", "age_weeks": -1}]}`)}},
		},
		{
			name: "missing offset",
			fsys: fstest.MapFS{"missing.json": {Data: []byte(`{"vaccines": [{"name": "X", "code": "X"}]}`)}},
		},
		{
			name: "missing name",
			fsys: fstest.MapFS{"noname.json": {Data: []byte(`{"vaccines": [{"code": "X", "age_weeks": 1}]}`)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.LoadJSONCatalog(tt.fsys)
			assert.Error(t, err)
		})
	}
}

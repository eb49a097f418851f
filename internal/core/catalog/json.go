package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/IANDYI/immunization-service/internal/core/domain"
)

//go:embed guidelines/*.json
var embeddedGuidelines embed.FS

// guidelineFile is the on-disk shape of one guideline resource
type guidelineFile struct {
	Guideline   string          `json:"guideline"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
	Vaccines    []vaccineRecord `json:"vaccines"`
}

type vaccineRecord struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Code        string `json:"code"`
	AgeWeeks    *int   `json:"age_weeks"`
	AgeLabel    string `json:"age_label"`
	Description string `json:"description"`
	FullName    string `json:"full_name"`
	Doses       int    `json:"doses"`
	Route       string `json:"route"`
	Notes       string `json:"notes"`
}

// GuidelineInfo describes where a loaded guideline comes from
type GuidelineInfo struct {
	Guideline   string `json:"guideline"`
	Source      string `json:"source"`
	Description string `json:"description"`
	DoseCount   int    `json:"dose_count"`
}

// JSONCatalog serves guideline tables loaded from JSON resources
type JSONCatalog struct {
	*table
	info map[string]GuidelineInfo
}

// EmbeddedJSONCatalog loads the guideline files bundled with the binary
func EmbeddedJSONCatalog() (*JSONCatalog, error) {
	sub, err := fs.Sub(embeddedGuidelines, "guidelines")
	if err != nil {
		return nil, err
	}
	return LoadJSONCatalog(sub)
}

// LoadJSONCatalogDir loads every *.json file of a directory
func LoadJSONCatalogDir(dir string) (*JSONCatalog, error) {
	return LoadJSONCatalog(os.DirFS(dir))
}

// LoadJSONCatalog loads every top-level *.json file of fsys.
// A file without a "guideline" key is registered under its file stem.
func LoadJSONCatalog(fsys fs.FS) (*JSONCatalog, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no guideline files found")
	}

	c := &JSONCatalog{table: newTable(), info: make(map[string]GuidelineInfo)}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := c.addFile(name, data); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *JSONCatalog) addFile(name string, data []byte) error {
	var file guidelineFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	guideline := strings.TrimSpace(file.Guideline)
	if guideline == "" {
		guideline = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}

	doses := make([]domain.VaccineDoseDefinition, 0, len(file.Vaccines))
	for i, v := range file.Vaccines {
		def, err := v.definition()
		if err != nil {
			return fmt.Errorf("%s: vaccine %d: %w", name, i, err)
		}
		doses = append(doses, def)
	}

	c.add(guideline, doses)
	c.info[guideline] = GuidelineInfo{
		Guideline:   guideline,
		Source:      file.Source,
		Description: file.Description,
		DoseCount:   len(doses),
	}
	return nil
}

// definition converts a record, preferring "code" over "id"
func (v vaccineRecord) definition() (domain.VaccineDoseDefinition, error) {
	if v.Name == "" {
		return domain.VaccineDoseDefinition{}, fmt.Errorf("name is required")
	}
	if v.AgeWeeks == nil {
		return domain.VaccineDoseDefinition{}, fmt.Errorf("age_weeks is required for %s", v.Name)
	}
	if *v.AgeWeeks < 0 {
		return domain.VaccineDoseDefinition{}, fmt.Errorf("age_weeks must not be negative for %s", v.Name)
	}

	code := v.Code
	if code == "" {
		code = v.ID
	}

	return domain.VaccineDoseDefinition{
		Name:           v.Name,
		Code:           code,
		AgeOffsetWeeks: *v.AgeWeeks,
		AgeLabel:       v.AgeLabel,
		Description:    v.Description,
		FullName:       v.FullName,
		Doses:          v.Doses,
		Route:          v.Route,
		Notes:          v.Notes,
	}, nil
}

// Info returns the source metadata of a loaded guideline
func (c *JSONCatalog) Info(guideline string) (GuidelineInfo, bool) {
	info, ok := c.info[guideline]
	return info, ok
}

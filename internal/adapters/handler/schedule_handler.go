package handler

import (
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/catalog"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/schedule"
	"go.uber.org/zap"
)

// ScheduleHandler exposes the catalog and the stateless schedule engine
type ScheduleHandler struct {
	generator *schedule.Generator
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(generator *schedule.Generator, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleHandler{generator: generator, logger: logger, now: time.Now}
}

// GuidelineSummary describes one guideline of the catalog
type GuidelineSummary struct {
	Guideline   string `json:"guideline"`
	DoseCount   int    `json:"dose_count"`
	Source      string `json:"source,omitempty"`
	Description string `json:"description,omitempty"`
}

// describedCatalog is implemented by catalogs that know where a guideline
// comes from
type describedCatalog interface {
	Info(guideline string) (catalog.GuidelineInfo, bool)
}

// ListGuidelines handles GET /guidelines
func (h *ScheduleHandler) ListGuidelines(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}

	provider := h.generator.Catalog()
	described, _ := provider.(describedCatalog)

	guidelines := provider.Guidelines()
	summaries := make([]GuidelineSummary, 0, len(guidelines))
	for _, g := range guidelines {
		summary := GuidelineSummary{Guideline: g, DoseCount: len(provider.Doses(g))}
		if described != nil {
			if info, ok := described.Info(g); ok {
				summary.Source = info.Source
				summary.Description = info.Description
			}
		}
		summaries = append(summaries, summary)
	}

	respond(w, r, h.logger, c, http.StatusOK, summaries)
}

// ListDoses handles GET /guidelines/{guideline}/doses
// Unlike schedule generation, an unknown guideline is not replaced by the default
func (h *ScheduleHandler) ListDoses(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}

	guideline := r.PathValue("guideline")
	provider := h.generator.Catalog()
	if !provider.IsKnown(guideline) {
		http.Error(w, "guideline not found", http.StatusNotFound)
		logRequest(h.logger, c, r, http.StatusNotFound)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, provider.Doses(guideline))
}

// PreviewRequest is the body of POST /schedules/preview
type PreviewRequest struct {
	DateOfBirth   string `json:"date_of_birth"`
	Guideline     string `json:"guideline"`
	ReferenceDate string `json:"reference_date,omitempty"`
}

// PreviewResponse is a generated schedule that is not persisted
type PreviewResponse struct {
	Guideline     string                 `json:"guideline"`
	DateOfBirth   civil.Date             `json:"date_of_birth"`
	ReferenceDate civil.Date             `json:"reference_date"`
	Age           string                 `json:"age"`
	Entries       []domain.ScheduleEntry `json:"entries"`
}

// Preview handles POST /schedules/preview
// Unknown guidelines fall back to the default one, which is reported back
func (h *ScheduleHandler) Preview(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}

	var req PreviewRequest
	if !decodeBody(w, r, h.logger, c, &req) {
		return
	}

	dob, err := domain.ParseDate(req.DateOfBirth)
	if err != nil {
		writeError(w, r, h.logger, c, "Preview schedule", err)
		return
	}
	ref, err := h.reference(req.ReferenceDate)
	if err != nil {
		writeError(w, r, h.logger, c, "Preview schedule", err)
		return
	}

	guideline := req.Guideline
	if !h.generator.Catalog().IsKnown(guideline) {
		guideline = domain.DefaultGuideline
	}

	respond(w, r, h.logger, c, http.StatusOK, PreviewResponse{
		Guideline:     guideline,
		DateOfBirth:   dob,
		ReferenceDate: ref,
		Age:           domain.AgeString(dob, ref),
		Entries:       h.generator.Generate(dob, guideline),
	})
}

// CategorizeRequest is the body of POST /schedules/categorize
type CategorizeRequest struct {
	ReferenceDate string            `json:"reference_date,omitempty"`
	Vaccinations  []schedule.Record `json:"vaccinations"`
}

// CategorizeResponse wraps the buckets with the date they were computed for
type CategorizeResponse struct {
	ReferenceDate civil.Date                `json:"reference_date"`
	Categories    schedule.RecordCategories `json:"categories"`
}

// Categorize handles POST /schedules/categorize
// Records keep every field they were sent with
func (h *ScheduleHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}

	var req CategorizeRequest
	if !decodeBody(w, r, h.logger, c, &req) {
		return
	}

	ref, err := h.reference(req.ReferenceDate)
	if err != nil {
		writeError(w, r, h.logger, c, "Categorize", err)
		return
	}

	categories, err := schedule.CategorizeRecords(req.Vaccinations, ref)
	if err != nil {
		writeError(w, r, h.logger, c, "Categorize", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, CategorizeResponse{ReferenceDate: ref, Categories: categories})
}

func (h *ScheduleHandler) reference(raw string) (civil.Date, error) {
	if raw == "" {
		return domain.Today(h.now()), nil
	}
	return domain.ParseDate(raw)
}

package handler

import (
	"net/http"
	"time"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"go.uber.org/zap"
)

// VaccinationHandler handles HTTP requests for scheduled doses
type VaccinationHandler struct {
	vaccinationService ports.VaccinationService
	logger             *zap.Logger
	now                func() time.Time
}

// NewVaccinationHandler creates a new vaccination handler
func NewVaccinationHandler(vaccinationService ports.VaccinationService, logger *zap.Logger) *VaccinationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VaccinationHandler{
		vaccinationService: vaccinationService,
		logger:             logger,
		now:                time.Now,
	}
}

// ListVaccinations handles GET /children/{child_id}/vaccinations
// Rows are ordered by due date; each carries its persisted status
func (h *VaccinationHandler) ListVaccinations(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	vaccinations, err := h.vaccinationService.ListVaccinations(r.Context(), childID, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "List vaccinations", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, vaccinations)
}

// Overview handles GET /children/{child_id}/vaccinations/overview?as_of=YYYY-MM-DD
func (h *VaccinationHandler) Overview(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}
	ref, ok := referenceDate(w, r, h.logger, c, h.now)
	if !ok {
		return
	}

	overview, err := h.vaccinationService.Overview(r.Context(), childID, c.userID, c.isAdmin, ref)
	if err != nil {
		writeError(w, r, h.logger, c, "Vaccination overview", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, overview)
}

// CompleteVaccinationRequest is the body of POST /vaccinations/{vaccination_id}/complete
type CompleteVaccinationRequest struct {
	AdministeredDate string `json:"administered_date,omitempty"` // YYYY-MM-DD, defaults to today
	Notes            string `json:"notes,omitempty"`
	AdministeredBy   string `json:"administered_by,omitempty"`
	BatchNumber      string `json:"batch_number,omitempty"`
}

// MarkCompleted handles POST /vaccinations/{vaccination_id}/complete
// The body is optional
func (h *VaccinationHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	vaccinationID, ok := pathUUID(w, r, h.logger, c, "vaccination_id")
	if !ok {
		return
	}

	var req CompleteVaccinationRequest
	if r.ContentLength != 0 && !decodeBody(w, r, h.logger, c, &req) {
		return
	}

	details := domain.CompletionDetails{
		Notes:          req.Notes,
		AdministeredBy: req.AdministeredBy,
		BatchNumber:    req.BatchNumber,
	}
	if req.AdministeredDate != "" {
		administered, err := domain.ParseDate(req.AdministeredDate)
		if err != nil {
			writeError(w, r, h.logger, c, "Mark completed", err)
			return
		}
		details.AdministeredDate = &administered
	}

	vaccination, err := h.vaccinationService.MarkCompleted(r.Context(), vaccinationID, details, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "Mark completed", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, vaccination)
}

// MarkPending handles POST /vaccinations/{vaccination_id}/pending
func (h *VaccinationHandler) MarkPending(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	vaccinationID, ok := pathUUID(w, r, h.logger, c, "vaccination_id")
	if !ok {
		return
	}

	vaccination, err := h.vaccinationService.MarkPending(r.Context(), vaccinationID, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "Mark pending", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, vaccination)
}

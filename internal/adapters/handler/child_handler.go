package handler

import (
	"net/http"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"go.uber.org/zap"
)

// ChildHandler handles HTTP requests for child profiles
type ChildHandler struct {
	childService ports.ChildService
	logger       *zap.Logger
}

// NewChildHandler creates a new child handler
func NewChildHandler(childService ports.ChildService, logger *zap.Logger) *ChildHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChildHandler{
		childService: childService,
		logger:       logger,
	}
}

// CreateChildResponse is returned by POST /children
type CreateChildResponse struct {
	Child          *domain.Child `json:"child"`
	ReceivedMarked int           `json:"received_marked"`
}

// RegenerateScheduleResponse is returned by POST /children/{child_id}/schedule/regenerate
type RegenerateScheduleResponse struct {
	ChildID      string                         `json:"child_id"`
	Vaccinations []*domain.ScheduledVaccination `json:"vaccinations"`
}

// CreateChild handles POST /children
// PARENT only - the caller becomes the owner
func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}

	var req ports.CreateChildRequest
	if !decodeBody(w, r, h.logger, c, &req) {
		return
	}

	child, received, err := h.childService.CreateChild(r.Context(), req, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "Create child", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusCreated, CreateChildResponse{Child: child, ReceivedMarked: received})
}

// GetChild handles GET /children/{child_id}
// ADMIN: any child, PARENT: owned only
func (h *ChildHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	child, err := h.childService.GetChild(r.Context(), childID, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "Get child", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, child)
}

// ListChildren handles GET /children
// ADMIN: all children, PARENT: owned only
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}

	children, err := h.childService.ListChildren(r.Context(), c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "List children", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, children)
}

// UpdateChild handles PUT /children/{child_id}
func (h *ChildHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	var req ports.UpdateChildRequest
	if !decodeBody(w, r, h.logger, c, &req) {
		return
	}

	child, err := h.childService.UpdateChild(r.Context(), childID, req, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "Update child", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, child)
}

// DeleteChild handles DELETE /children/{child_id}
func (h *ChildHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	if err := h.childService.DeleteChild(r.Context(), childID, c.userID, c.isAdmin); err != nil {
		writeError(w, r, h.logger, c, "Delete child", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	logRequest(h.logger, c, r, http.StatusNoContent)
}

// RegenerateSchedule handles POST /children/{child_id}/schedule/regenerate
// Every existing row is discarded, completed ones included
func (h *ChildHandler) RegenerateSchedule(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	vaccinations, err := h.childService.RegenerateSchedule(r.Context(), childID, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "Regenerate schedule", err)
		return
	}

	h.logger.Info("Schedule regenerated",
		zap.String("request_id", c.requestID),
		zap.String("child_id", childID.String()),
		zap.Int("doses", len(vaccinations)),
	)
	respond(w, r, h.logger, c, http.StatusOK, RegenerateScheduleResponse{ChildID: childID.String(), Vaccinations: vaccinations})
}

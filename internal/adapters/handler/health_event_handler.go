package handler

import (
	"net/http"

	"github.com/IANDYI/immunization-service/internal/core/ports"
	"go.uber.org/zap"
)

// HealthEventHandler handles HTTP requests for the health timeline
type HealthEventHandler struct {
	eventService ports.HealthEventService
	logger       *zap.Logger
}

// NewHealthEventHandler creates a new health event handler
func NewHealthEventHandler(eventService ports.HealthEventService, logger *zap.Logger) *HealthEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthEventHandler{eventService: eventService, logger: logger}
}

// AddEvent handles POST /children/{child_id}/health-events
func (h *HealthEventHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	var req ports.CreateHealthEventRequest
	if !decodeBody(w, r, h.logger, c, &req) {
		return
	}

	event, err := h.eventService.AddEvent(r.Context(), childID, req, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "Add health event", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusCreated, event)
}

// ListEvents handles GET /children/{child_id}/health-events?type=illness
func (h *HealthEventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	events, err := h.eventService.ListEvents(r.Context(), childID, c.userID, c.isAdmin, optionalQuery(r, "type"))
	if err != nil {
		writeError(w, r, h.logger, c, "List health events", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, events)
}

// DeleteEvent handles DELETE /health-events/{event_id}
func (h *HealthEventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	eventID, ok := pathUUID(w, r, h.logger, c, "event_id")
	if !ok {
		return
	}

	if err := h.eventService.DeleteEvent(r.Context(), eventID, c.userID, c.isAdmin); err != nil {
		writeError(w, r, h.logger, c, "Delete health event", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	logRequest(h.logger, c, r, http.StatusNoContent)
}

// Timeline handles GET /children/{child_id}/timeline?category=Vaccines
func (h *HealthEventHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	items, err := h.eventService.Timeline(r.Context(), childID, c.userID, c.isAdmin, optionalQuery(r, "category"))
	if err != nil {
		writeError(w, r, h.logger, c, "Timeline", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, items)
}

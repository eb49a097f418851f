package handler

import (
	"net/http"
	"time"

	"github.com/IANDYI/immunization-service/internal/core/ports"
	"go.uber.org/zap"
)

// ReminderHandler handles HTTP requests for reminder settings and due reminders
type ReminderHandler struct {
	reminderService ports.ReminderService
	logger          *zap.Logger
	now             func() time.Time
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminderService ports.ReminderService, logger *zap.Logger) *ReminderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderHandler{reminderService: reminderService, logger: logger, now: time.Now}
}

// GetSettings handles GET /children/{child_id}/reminder-settings
func (h *ReminderHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	settings, err := h.reminderService.GetSettings(r.Context(), childID, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "Get reminder settings", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, settings)
}

// SaveSettings handles PUT /children/{child_id}/reminder-settings
func (h *ReminderHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	c, ok := authenticatedCaller(w, r, h.logger)
	if !ok {
		return
	}
	childID, ok := pathUUID(w, r, h.logger, c, "child_id")
	if !ok {
		return
	}

	var req ports.ReminderSettingsRequest
	if !decodeBody(w, r, h.logger, c, &req) {
		return
	}

	settings, err := h.reminderService.SaveSettings(r.Context(), childID, req, c.userID, c.isAdmin)
	if err != nil {
		writeError(w, r, h.logger, c, "Save reminder settings", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, settings)
}

// DueReminders handles GET /children/{child_id}/reminders?as_of=YYYY-MM-DD
func (h *ReminderHandler) DueReminders(w http.ResponseWriter, r *http.Request) {
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

	reminders, err := h.reminderService.DueReminders(r.Context(), childID, c.userID, c.isAdmin, ref)
	if err != nil {
		writeError(w, r, h.logger, c, "Due reminders", err)
		return
	}

	respond(w, r, h.logger, c, http.StatusOK, reminders)
}

package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/adapters/middleware"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// generateRequestID generates a unique request ID for tracing
func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(b)
}

// caller is the authenticated user of a request
type caller struct {
	requestID string
	userID    uuid.UUID
	role      string
	isAdmin   bool
	start     time.Time
}

// authenticatedCaller reads the user placed in the context by the auth
// middleware and writes 401/400 when it is missing or malformed
func authenticatedCaller(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*caller, bool) {
	c := &caller{requestID: generateRequestID(), start: time.Now()}

	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Info("Missing user in request context", zap.String("request_id", c.requestID), zap.String("path", r.URL.Path))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		logger.Info("Invalid user ID", zap.String("request_id", c.requestID), zap.String("user_id", userIDStr), zap.Error(err))
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return nil, false
	}

	c.userID = userID
	c.role, _ = middleware.GetRole(r.Context())
	c.isAdmin = middleware.IsAdmin(r.Context())
	return c, true
}

// logRequest writes the structured access log line of a request
func logRequest(logger *zap.Logger, c *caller, r *http.Request, statusCode int) {
	logger.Info("request",
		zap.String("request_id", c.requestID),
		zap.String("user_id", c.userID.String()),
		zap.String("role", c.role),
		zap.String("method", r.Method),
		zap.String("endpoint", r.URL.Path),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", time.Since(c.start).Milliseconds()),
	)
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// respond writes v and logs the request
func respond(w http.ResponseWriter, r *http.Request, logger *zap.Logger, c *caller, statusCode int, v any) {
	writeJSON(w, statusCode, v)
	logRequest(logger, c, r, statusCode)
}

// statusFor maps core errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrChildNotFound),
		errors.Is(err, domain.ErrVaccinationNotFound),
		errors.Is(err, domain.ErrHealthEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrUnknownGuideline):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code, logs it and writes the error body
// Internal errors are not echoed to the client
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, c *caller, op string, err error) {
	statusCode := statusFor(err)
	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		logger.Error(op+" failed",
			zap.String("request_id", c.requestID),
			zap.String("user_id", c.userID.String()),
			zap.Error(err),
		)
		message = "internal server error"
	} else {
		logger.Info(op+" rejected",
			zap.String("request_id", c.requestID),
			zap.String("user_id", c.userID.String()),
			zap.Int("status_code", statusCode),
			zap.Error(err),
		)
	}

	http.Error(w, message, statusCode)
	logRequest(logger, c, r, statusCode)
}

// pathUUID parses a UUID path parameter, writing 400 when it is malformed
func pathUUID(w http.ResponseWriter, r *http.Request, logger *zap.Logger, c *caller, name string) (uuid.UUID, bool) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Info("Invalid path parameter", zap.String("request_id", c.requestID), zap.String(name, raw))
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		logRequest(logger, c, r, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes a JSON request body, writing 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, logger *zap.Logger, c *caller, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Info("Failed to decode request", zap.String("request_id", c.requestID), zap.Error(err))
		http.Error(w, "invalid request body", http.StatusBadRequest)
		logRequest(logger, c, r, http.StatusBadRequest)
		return false
	}
	return true
}

// referenceDate reads the optional as_of query parameter, defaulting to today
func referenceDate(w http.ResponseWriter, r *http.Request, logger *zap.Logger, c *caller, now func() time.Time) (civil.Date, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return domain.Today(now()), true
	}
	ref, err := domain.ParseDate(raw)
	if err != nil {
		writeError(w, r, logger, c, "Parse as_of", err)
		return civil.Date{}, false
	}
	return ref, true
}

// optionalQuery returns a pointer to a query parameter, or nil when absent
func optionalQuery(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

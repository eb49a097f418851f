package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IANDYI/immunization-service/internal/adapters/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHealthHandler(t *testing.T) (*handler.HealthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return handler.NewHealthHandler(db, zap.NewNop()), mock
}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) handler.HealthResponse {
	t.Helper()
	var response handler.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestHealthHandler_Health(t *testing.T) {
	h, _ := newHealthHandler(t)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeHealth(t, w)
	assert.Equal(t, "ok", response.Status)
	assert.WithinDuration(t, time.Now(), response.Timestamp, time.Second)
}

func TestHealthHandler_Live(t *testing.T) {
	h, _ := newHealthHandler(t)

	w := httptest.NewRecorder()
	h.Live(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", decodeHealth(t, w).Status)
}

func TestHealthHandler_Ready(t *testing.T) {
	h, mock := newHealthHandler(t)
	mock.ExpectPing()

	w := httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decodeHealth(t, w).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthHandler_Ready_DatabaseDown(t *testing.T) {
	h, mock := newHealthHandler(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	w := httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not ready", decodeHealth(t, w).Status)
}

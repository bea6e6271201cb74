package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housepulse/internal/infrastructure"
)

func TestAppError(t *testing.T) {
	cause := errors.New("open houses.csv: no such file or directory")
	err := NewLoadError("cannot read dataset", cause)

	assert.Equal(t, "[LOAD] cannot read dataset: open houses.csv: no such file or directory", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsLoadError(err))
	assert.True(t, IsLoadError(fmt.Errorf("run pipeline: %w", err)))
	assert.False(t, IsLoadError(NewExportError("write", nil)))
	assert.False(t, IsLoadError(cause))

	err.WithContext("path", "houses.csv")
	assert.Equal(t, "houses.csv", err.Context["path"])

	assert.Equal(t, "[CONFIG] bad port", NewConfigError("bad port", nil).Error())
	assert.True(t, IsType(NewNotFoundError("view"), ErrTypeNotFound))
	assert.True(t, IsType(NewAppValidationError("x"), ErrTypeValidation))
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/api/views/pie").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeNotFound, decoded["type"])
	assert.Equal(t, float64(404), decoded["status"])
	assert.Equal(t, "abc", decoded["trace_id"])
	assert.Equal(t, "/api/views/pie", decoded["instance"])
	assert.NotContains(t, decoded, "detail")
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	handler := NewErrorHandler(slog.New(slog.NewTextHandler(os.Stderr, nil)), false)
	req := httptest.NewRequest(http.MethodGet, "/api/views", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"api not found", ViewNotFoundError("pie"), http.StatusNotFound, TypeViewNotFound},
		{"api validation", ErrValidation("top", "must be positive"), http.StatusBadRequest, TypeValidation},
		{"dataset unavailable", ErrDatasetUnavailable, http.StatusServiceUnavailable, TypeDatasetUnavailable},
		{"wrapped load error", fmt.Errorf("reload: %w", NewLoadError("missing columns", nil)), http.StatusServiceUnavailable, TypeDatasetLoad},
		{"app not found", NewNotFoundError("snapshot"), http.StatusNotFound, TypeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := handler.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/views", problem.Instance)
		})
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	handler := NewErrorHandler(nil, false)

	req := httptest.NewRequest(http.MethodPost, "/api/views/reload", nil)
	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-123"))
	rec := httptest.NewRecorder()

	handler.HandleError(rec, req, NewLoadError("required columns missing: Price", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeDatasetLoad, body["type"])
	assert.Equal(t, "trace-123", body["trace_id"])
	assert.Contains(t, body["detail"], "Price")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(nil, true)

	rec := httptest.NewRecorder()
	handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/views", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "DELETE")
}

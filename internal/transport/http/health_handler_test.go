package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housepulse/internal/config"
	apierrors "housepulse/internal/errors"
	"housepulse/internal/services"
)

type readyProbe bool

func (p readyProbe) Ready() bool { return bool(p) }

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	paths := &config.Paths{ReportsDir: t.TempDir()}

	tests := []struct {
		name           string
		ready          bool
		handler        func(*HealthHandler) http.HandlerFunc
		expectedStatus int
		expectedField  string
		expectedValue  interface{}
	}{
		{"health", false, func(h *HealthHandler) http.HandlerFunc { return h.HealthCheck }, http.StatusOK, "status", "ok"},
		{"ready", true, func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck }, http.StatusOK, "status", "ready"},
		{"not ready", false, func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck }, http.StatusServiceUnavailable, "status", "not_ready"},
		{"version", false, func(h *HealthHandler) http.HandlerFunc { return h.Version }, http.StatusOK, "version", "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := services.NewHealthService("test", paths, readyProbe(tt.ready), logger)
			h := NewHealthHandler(svc, logger)

			rec := httptest.NewRecorder()
			tt.handler(h)(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedValue, body[tt.expectedField])
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)

	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewMetricsHandler(nil, errorHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("exposition", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "housepulse_test_total", Help: "test"})
		registry.MustRegister(counter)
		counter.Inc()

		rec := httptest.NewRecorder()
		NewMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), errorHandler).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "housepulse_test_total 1")
	})
}

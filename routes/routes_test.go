package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/upb/shopping-assistant/app"
	"github.com/upb/shopping-assistant/config"
	"github.com/upb/shopping-assistant/internal/observability"
)

const origin = "https://shop.example.com"

func testDeps(t *testing.T, metricsEnabled bool) *app.Dependencies {
	t.Helper()

	return &app.Dependencies{
		Config: &config.Config{
			CORS:          config.CORSConfig{AllowedOrigin: origin},
			Pipeline:      config.PipelineConfig{TopK: 3, UpstreamTimeout: time.Second},
			Observability: config.ObservabilityConfig{MetricsEnabled: metricsEnabled},
		},
		Logger:  zaptest.NewLogger(t),
		Metrics: observability.NewPrometheusMetrics(),
	}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSetupRoutes(t *testing.T) {
	h := SetupRoutes(testDeps(t, true))

	t.Run("banner", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Smart Shopping Assistant API is running", w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("healthz", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("readyz without pipeline", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("generate rejects GET", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/generate", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.JSONEq(t, `{"error":"Method not allowed. Use POST."}`, w.Body.String())
	})

	t.Run("generate validates before the pipeline", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"messages":true}`))
		w := serve(h, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid request body. \"messages\" must be an array."}`, w.Body.String())
	})

	t.Run("unknown route", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"endpoint not found"}`, w.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})
}

func TestSetupRoutes_MetricsDisabled(t *testing.T) {
	h := SetupRoutes(testDeps(t, false))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRoutes_CORS(t *testing.T) {
	h := SetupRoutes(testDeps(t, false))

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		w := serve(h, req)

		assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("other origin gets no allow header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")

		w := serve(h, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/metrics"
)

func TestLogging(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		wantLevel      string
		expectedStatus int
	}{
		{name: "GET 200", method: http.MethodGet, path: "/api/v1/items", expectedStatus: http.StatusOK, wantLevel: "INFO"},
		{name: "POST 201", method: http.MethodPost, path: "/api/v1/items", expectedStatus: http.StatusCreated, wantLevel: "INFO"},
		{name: "PUT 409", method: http.MethodPut, path: "/api/v1/items/srv-1", expectedStatus: http.StatusConflict, wantLevel: "WARN"},
		{name: "GET 500", method: http.MethodGet, path: "/api/v1/items", expectedStatus: http.StatusInternalServerError, wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf strings.Builder
			logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			m := metrics.New(prometheus.NewRegistry())

			handler := Logging(logger, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.expectedStatus)
				_, _ = w.Write([]byte("body"))
			}))

			req := httptest.NewRequest(tt.method, tt.path+"?token=secret-token", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			req.Header.Set("User-Agent", "TestAgent/1.0")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			logOutput := logBuf.String()
			assert.Contains(t, logOutput, "HTTP request")
			assert.Contains(t, logOutput, tt.method)
			assert.Contains(t, logOutput, tt.path)
			assert.Contains(t, logOutput, "192.168.1.1:12345")
			assert.Contains(t, logOutput, "TestAgent/1.0")
			assert.Contains(t, logOutput, "bytes_written=4")
			assert.Contains(t, logOutput, "level="+tt.wantLevel)
			assert.NotContains(t, logOutput, "secret-token", "query must not be logged")

			assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequests))
		})
	}
}

func TestLogging_SkipPaths(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	m := metrics.New(prometheus.NewRegistry())

	handler := Logging(logger, m, "/api/v1/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Empty(t, logBuf.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	assert.Contains(t, logBuf.String(), "/api/v1/items")

	// Метрики считаются для всех запросов
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "200")))
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

	_, _, err := rw.Hijack()
	assert.Error(t, err)
	assert.NotNil(t, rw.Unwrap())
}

func TestResponseWriter_CapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)
	n, err := rw.Write([]byte("Hello, World!"))
	require.NoError(t, err)

	assert.Equal(t, 13, n)
	assert.Equal(t, http.StatusNotFound, rw.statusCode)
	assert.Equal(t, int64(13), rw.written)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

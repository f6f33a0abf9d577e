package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	r, err := NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)

	r.Observe("succeeded", 20*time.Millisecond, 5)
	r.Observe("succeeded", 10*time.Millisecond, 0)
	r.Observe("rejected", time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.executions.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.executions.WithLabelValues("rejected")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.rows))
}

func TestNewRecorderTwiceOnSameRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	assert.NoError(t, err)
}

func TestHandlerAndMiddleware(t *testing.T) {
	r, err := NewRecorder(nil)
	require.NoError(t, err)

	e := echo.New()
	e.Use(r.Middleware())
	e.GET("/api/v1/reports/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/metrics", echo.WrapHandler(r.Handler()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/42", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)
	r.Observe("failed", time.Second, 0)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `report_bridge_http_request_duration_seconds_count{method="GET",path="/api/v1/reports/:id",status="204"} 1`)
	assert.Contains(t, body, `report_bridge_executions_total{outcome="failed"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

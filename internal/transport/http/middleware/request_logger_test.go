package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"member-dedup/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	app.Use(RequestLogger(zap.New(core).Sugar()))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/boom", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/boom"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zap.InfoLevel, entries[0].Level)
	require.Equal(t, zap.ErrorLevel, entries[1].Level)
	require.EqualValues(t, http.StatusInternalServerError, entries[1].ContextMap()["status"])
}

func TestRequestMetricsUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTPMetrics(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(RequestMetrics(m))
	app.Get("/duplicates/:id", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	for _, id := range []string{"a", "b", "c"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/duplicates/"+id, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	count, err := testutil.GatherAndCount(reg, "http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRequestLoggerUsesStatusOfReturnedErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	app.Use(RequestLogger(zap.New(core).Sugar()))
	app.Get("/bad", func(c *fiber.Ctx) error { return fiber.NewError(http.StatusBadRequest, "bad limit") })
	app.Get("/fail", func(c *fiber.Ctx) error { return fiber.NewError(http.StatusInternalServerError, "db down") })

	tests := []struct {
		path   string
		status int
		level  zapcore.Level
	}{
		{"/bad", http.StatusBadRequest, zap.InfoLevel},
		{"/fail", http.StatusInternalServerError, zap.ErrorLevel},
		{"/nope", http.StatusNotFound, zap.InfoLevel},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, tt.status, resp.StatusCode, tt.path)
	}

	entries := logs.All()
	require.Len(t, entries, len(tests))
	for i, tt := range tests {
		require.Equal(t, tt.level, entries[i].Level, tt.path)
		require.EqualValues(t, tt.status, entries[i].ContextMap()["status"], tt.path)
	}
}

func TestRequestMetricsLabelsErrorsAndUnmatchedRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTPMetrics(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(RequestMetrics(m))
	app.Get("/fail/:id", func(c *fiber.Ctx) error { return fiber.NewError(http.StatusInternalServerError, "db down") })

	for _, path := range []string{"/fail/1", "/nope"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",route="/fail/:id",status="500"} 1
http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}

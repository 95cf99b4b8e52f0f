// Package middleware contains HTTP middlewares for delivery.
package middleware

import (
	"time"

	"member-dedup/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs HTTP requests with method, route, status and duration.
// Server errors are logged at error level.
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		handleChainError(c, c.Next())
		dur := time.Since(start)
		reqID, _ := c.Locals("requestid").(string)
		if reqID == "" {
			reqID = c.Get(fiber.HeaderXRequestID)
		}
		status := c.Response().StatusCode()
		fields := []interface{}{
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", status,
			"duration_ms", float64(dur.Microseconds()) / 1000.0,
			"request_id", reqID,
		}
		if status >= fiber.StatusInternalServerError {
			log.Errorw("http", fields...)
		} else {
			log.Infow("http", fields...)
		}
		return nil
	}
}

// RequestMetrics records request counts and latency per route pattern.
// Requests that match no route share the "unmatched" label.
func RequestMetrics(m *metrics.HTTPMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		self := c.Route()
		handleChainError(c, c.Next())
		route := "unmatched"
		if r := c.Route(); r != self && r.Path != "" {
			route = r.Path
		}
		m.Observe(c.Method(), route, c.Response().StatusCode(), time.Since(start))
		return nil
	}
}

// handleChainError renders err through the app error handler so the final status is
// known before it is logged or counted.
func handleChainError(c *fiber.Ctx, err error) {
	if err == nil {
		return
	}
	if hErr := c.App().ErrorHandler(c, err); hErr != nil {
		_ = c.SendStatus(fiber.StatusInternalServerError)
	}
}

package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/casemon/casemon/internal/platform/metrics"
)

// Logger writes one structured line per request and feeds the request
// metrics.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			rid, _ := c.Get("request_id").(string)
			status := c.Response().Status
			latency := time.Since(start)

			evt := logger.Info()
			if err != nil || status >= 500 {
				evt = logger.Error().Err(err)
			}
			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", latency).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			metrics.RecordHTTPRequest(req.Method, c.Path(), status, latency)
			return nil
		}
	}
}

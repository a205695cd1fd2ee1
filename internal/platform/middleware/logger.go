package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mydrreferral/mydrreferral/internal/platform/auth"
)

// Logger emits one structured line per request. Authenticated requests carry
// the professional id so a user's activity can be traced across endpoints.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			// Re-read the request: the auth middleware swaps it for one
			// whose context carries the authenticated professional.
			req := c.Request()
			if id := auth.ProfessionalIDFromContext(req.Context()); id > 0 {
				evt = evt.Int64("professional_id", id)
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

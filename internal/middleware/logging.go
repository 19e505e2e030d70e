// Package middleware provides Echo middleware for logging, CORS, metrics,
// and security headers.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger returns an Echo middleware that logs each request with slog.
// The request kind (type/up query parameter) is included so routing decisions
// show up in the logs without parsing the full query.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			kind := req.URL.Query().Get("type")
			if kind == "" {
				kind = req.URL.Query().Get("up")
			}

			logger.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"kind", kind,
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP(),
				"bytes_out", res.Size,
			)

			return err
		}
	}
}

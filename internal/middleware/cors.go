package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS header values. The proxy exists to unlock browser access to the
// upstream APIs, so any origin is allowed for the read-only surface.
const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, OPTIONS"
	corsAllowHeaders = "*"
)

// CORS returns an Echo middleware that attaches permissive cross-origin
// headers to every response, error responses included, so browser clients
// can read error bodies instead of seeing an opaque network failure.
// OPTIONS preflights are answered with 204 and no body.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, corsAllowOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			h.Add(echo.HeaderVary, "Origin")

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}

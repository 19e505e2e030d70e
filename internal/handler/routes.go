package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// The proxy surface is GET-only; OPTIONS preflights are answered by the CORS
// middleware before routing, and other methods fall through to Echo's 405.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	e.GET("/", proxy.Handle)
	e.GET("/api/proxy", proxy.Handle)
}

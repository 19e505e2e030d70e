package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"seasons-proxy-go/internal/service"
)

// cacheControl is the short public cache hint attached to relayed responses:
// fresh for 60s at shared caches, stale-while-revalidate for 5 minutes.
const cacheControl = "s-maxage=60, stale-while-revalidate=300"

// Diagnostic headers exposed to aid debugging.
const (
	headerProxyTarget     = "X-Proxy-Target"
	headerSeasonRequested = "X-Calc-Season-Requested"
	headerSeasonMatch     = "X-Calc-Match"
)

// ProxyHandler routes inbound requests to the upstream season APIs and
// relays the (optionally shaped) response.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle validates the query, performs the single upstream fetch, and relays
// status, body, and content type back to the caller. CORS headers are already
// attached by middleware on every path, errors included.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	resp, err := h.service.Forward(req.Context(), req.URL.Query(), inboundHost(req))
	if err != nil {
		return h.mapError(c, err)
	}

	header := c.Response().Header()
	header.Set("Cache-Control", cacheControl)
	header.Set(headerProxyTarget, resp.Target)
	if resp.Shaped {
		header.Set(headerSeasonRequested, strconv.Itoa(resp.Season))
		if resp.Match {
			header.Set(headerSeasonMatch, "hit")
		} else {
			header.Set(headerSeasonMatch, "miss")
		}
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}

	return c.Blob(resp.StatusCode, contentType, resp.Body)
}

// inboundHost returns the host this service is reached under: the forwarded
// host when behind a load balancer, else the Host header. Feeds the
// self-proxy guard.
func inboundHost(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-Host"); fwd != "" {
		return fwd
	}
	return req.Host
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	var invalid *service.InvalidParamError
	if errors.As(err, &invalid) {
		body := map[string]any{
			"error": invalid.Error(),
			"param": invalid.Param,
		}
		if len(invalid.Allowed) > 0 {
			body["allowed"] = invalid.Allowed
		}
		return c.JSON(http.StatusBadRequest, body)
	}

	var selfProxy *service.SelfProxyError
	if errors.As(err, &selfProxy) {
		h.logger.Error("self-proxy refused", "target", selfProxy.Target)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":  "upstream target resolves to this service's own host",
			"target": selfProxy.Target,
		})
	}

	// Everything else is a transport-level fetch failure: DNS, connect,
	// timeout. Never retried, surfaced as a gateway failure.
	h.logger.Error("upstream fetch failed",
		"err", err,
		"path", c.Request().URL.Path,
	)
	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": err.Error(),
	})
}

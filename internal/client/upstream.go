// Package client provides the outbound HTTP client for the upstream season APIs.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"seasons-proxy-go/internal/config"
	"seasons-proxy-go/internal/metrics"
	"seasons-proxy-go/internal/model"
)

const userAgent = "seasons-proxy-go/1.0"

// maxBodyBytes caps how much of an upstream body is read. Season payloads
// are small JSON documents; anything larger is a misbehaving upstream.
const maxBodyBytes = 4 * 1024 * 1024

// Client sends GET requests to the whitelisted upstream APIs. Redirects are
// followed (the http.Client default); nothing is retried.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New creates a Client with connection pooling and the configured timeout.
// The metrics parameter is optional; pass nil to disable upstream metrics
// recording.
func New(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Get executes the single outbound GET for a resolved target and reads the
// body in full. The context controls the lifetime of the upstream request:
// when it is canceled (e.g. the inbound client disconnects), the upstream
// request is canceled too.
func (c *Client) Get(ctx context.Context, target *model.UpstreamTarget) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("upstream request",
		"kind", string(target.Kind),
		"host", target.Host,
	)

	kind := string(target.Kind)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(kind).Observe(duration)
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(kind).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(kind, strconv.Itoa(resp.StatusCode)).Inc()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	return &model.UpstreamResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
		Body:        body,
	}, nil
}

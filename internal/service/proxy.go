// Package service implements the request routing and response shaping core:
// validate the query, resolve one whitelisted upstream target, guard against
// self-proxying, fetch once, and optionally select a season record from the
// body.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"seasons-proxy-go/internal/config"
	"seasons-proxy-go/internal/model"
)

// Fetcher issues the single outbound GET. Satisfied by client.Client; tests
// substitute spies.
type Fetcher interface {
	Get(ctx context.Context, target *model.UpstreamTarget) (*model.UpstreamResponse, error)
}

// ProxyService handles the routing and shaping logic for proxy requests.
type ProxyService struct {
	fetcher       Fetcher
	resolver      *Resolver
	defaultSeason int
	logger        *slog.Logger
}

// NewProxyService creates a ProxyService.
func NewProxyService(f Fetcher, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	resolver, err := NewResolver(cfg)
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}

	return &ProxyService{
		fetcher:       f,
		resolver:      resolver,
		defaultSeason: cfg.GlobalDefaultSeason(),
		logger:        logger.With("component", "proxy_service"),
	}, nil
}

// Forward validates the query, resolves the upstream target, and performs
// the single outbound call. inboundHost is the request's own host (the
// forwarded host when behind a proxy) used by the self-proxy guard.
//
// The upstream status code is relayed verbatim; only calculator responses
// with a 2xx status and no raw flag are shaped.
func (s *ProxyService) Forward(ctx context.Context, query url.Values, inboundHost string) (*model.ShapedResponse, error) {
	pr, err := ValidateRequest(query)
	if err != nil {
		return nil, err
	}

	target := s.resolver.Resolve(pr)
	if err := CheckSelfProxy(target, inboundHost); err != nil {
		return nil, err
	}

	s.logger.Debug("forwarding request",
		"kind", string(pr.Kind),
		"target", target.URL,
	)

	resp, err := s.fetcher.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	shaped := &model.ShapedResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType,
		Body:        resp.Body,
		Target:      target.URL,
	}

	if pr.Kind != model.KindCalculator || pr.Raw || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return shaped, nil
	}

	season := s.defaultSeason
	if pr.Season != nil {
		season = *pr.Season
	}

	body, match, ok := SelectSeason(resp.Body, season)
	if !ok {
		// Non-JSON upstream body: fail open, relay it unmodified.
		s.logger.Warn("upstream body is not JSON; relaying verbatim",
			"target", target.URL,
			"status", resp.StatusCode,
		)
		return shaped, nil
	}

	shaped.Body = body
	shaped.ContentType = "application/json"
	shaped.Shaped = true
	shaped.Match = match
	shaped.Season = season
	return shaped, nil
}

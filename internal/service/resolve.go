package service

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"seasons-proxy-go/internal/config"
	"seasons-proxy-go/internal/model"
)

// SelfProxyError is returned when the resolved upstream host equals the
// inbound request's own host. Forwarding would loop back into this service.
type SelfProxyError struct {
	Target string
}

func (e *SelfProxyError) Error() string {
	return fmt.Sprintf("refusing to proxy to own host: %s", e.Target)
}

// Resolver maps validated requests onto the whitelisted upstream targets.
// Base URLs come from immutable startup configuration, never from request
// input.
type Resolver struct {
	calculatorURL   *url.URL
	transactionsURL *url.URL
	bonusURL        *url.URL
	txDefaultSeason int
}

// NewResolver parses the configured base URLs once at startup.
func NewResolver(cfg *config.Config) (*Resolver, error) {
	calc, err := url.Parse(cfg.Upstream.CalculatorURL)
	if err != nil {
		return nil, fmt.Errorf("parse calculator_url: %w", err)
	}
	txs, err := url.Parse(cfg.Upstream.TransactionsURL)
	if err != nil {
		return nil, fmt.Errorf("parse transactions_url: %w", err)
	}
	bonus, err := url.Parse(cfg.Upstream.BonusURL)
	if err != nil {
		return nil, fmt.Errorf("parse bonus_url: %w", err)
	}

	return &Resolver{
		calculatorURL:   calc,
		transactionsURL: txs,
		bonusURL:        bonus,
		txDefaultSeason: cfg.TransactionsDefaultSeason(),
	}, nil
}

// Resolve returns the single upstream target for a request.
//
// Query parameters attached per kind:
//   - calculator: address only; season filtering happens locally after the
//     fetch, not upstream.
//   - transactions: address plus season (explicit, else configured default).
//   - bonus: address only.
func (r *Resolver) Resolve(pr *model.ProxyRequest) *model.UpstreamTarget {
	var base *url.URL
	q := url.Values{}
	q.Set("address", pr.Address)

	switch pr.Kind {
	case model.KindTransactions:
		base = r.transactionsURL
		season := r.txDefaultSeason
		if pr.Season != nil {
			season = *pr.Season
		}
		q.Set("season", strconv.Itoa(season))
	case model.KindBonus:
		base = r.bonusURL
	default:
		base = r.calculatorURL
	}

	u := *base
	if u.RawQuery != "" {
		u.RawQuery += "&" + q.Encode()
	} else {
		u.RawQuery = q.Encode()
	}

	return &model.UpstreamTarget{
		Kind: pr.Kind,
		URL:  u.String(),
		Host: u.Host,
	}
}

// CheckSelfProxy refuses a target whose host equals the inbound host.
// inboundHost should be the X-Forwarded-Host value when present, else the
// Host header. Runs strictly before any outbound call.
func CheckSelfProxy(target *model.UpstreamTarget, inboundHost string) error {
	if inboundHost == "" {
		return nil
	}
	if strings.EqualFold(target.Host, inboundHost) {
		return &SelfProxyError{Target: target.URL}
	}
	return nil
}

package service

import (
	"errors"
	"net/url"
	"testing"

	"seasons-proxy-go/internal/config"
	"seasons-proxy-go/internal/model"
)

func testResolverConfig() *config.Config {
	def := 2
	return &config.Config{
		Upstream: config.UpstreamConfig{
			CalculatorURL:   "https://calc.example.net/api/calculator",
			TransactionsURL: "https://txs.example.net/api/txs",
			BonusURL:        "https://bonus.example.net/api/bonus",
		},
		Season: config.SeasonConfig{Default: &def},
	}
}

func TestResolve_Calculator(t *testing.T) {
	r, err := NewResolver(testResolverConfig())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	season := 5
	target := r.Resolve(&model.ProxyRequest{
		Kind:    model.KindCalculator,
		Address: validAddress,
		Season:  &season,
	})

	u, err := url.Parse(target.URL)
	if err != nil {
		t.Fatalf("parse target URL: %v", err)
	}
	if u.Host != "calc.example.net" {
		t.Errorf("host = %q, want %q", u.Host, "calc.example.net")
	}
	if got := u.Query().Get("address"); got != validAddress {
		t.Errorf("address = %q, want %q", got, validAddress)
	}
	// Season filtering for the calculator kind happens locally after the
	// fetch; it must not leak into the upstream query.
	if got := u.Query().Get("season"); got != "" {
		t.Errorf("season param = %q, want it absent", got)
	}
}

func TestResolve_TransactionsSeason(t *testing.T) {
	tests := []struct {
		name       string
		cfgSeason  *int
		reqSeason  *int
		wantSeason string
	}{
		{"explicit season wins", nil, intPtr(7), "7"},
		{"global default when absent", nil, nil, "2"},
		{"configured override when absent", intPtr(4), nil, "4"},
		{"explicit beats override", intPtr(4), intPtr(1), "1"},
		{"season zero is honored", nil, intPtr(0), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testResolverConfig()
			cfg.Upstream.TransactionsSeason = tt.cfgSeason
			r, err := NewResolver(cfg)
			if err != nil {
				t.Fatalf("NewResolver: %v", err)
			}

			target := r.Resolve(&model.ProxyRequest{
				Kind:    model.KindTransactions,
				Address: validAddress,
				Season:  tt.reqSeason,
			})

			u, err := url.Parse(target.URL)
			if err != nil {
				t.Fatalf("parse target URL: %v", err)
			}
			if u.Host != "txs.example.net" {
				t.Errorf("host = %q, want %q", u.Host, "txs.example.net")
			}
			if got := u.Query().Get("season"); got != tt.wantSeason {
				t.Errorf("season = %q, want %q", got, tt.wantSeason)
			}
		})
	}
}

func TestResolve_Bonus(t *testing.T) {
	r, err := NewResolver(testResolverConfig())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	season := 3
	target := r.Resolve(&model.ProxyRequest{
		Kind:    model.KindBonus,
		Address: validAddress,
		Season:  &season,
	})

	u, err := url.Parse(target.URL)
	if err != nil {
		t.Fatalf("parse target URL: %v", err)
	}
	if u.Host != "bonus.example.net" {
		t.Errorf("host = %q, want %q", u.Host, "bonus.example.net")
	}
	if got := u.Query().Get("address"); got != validAddress {
		t.Errorf("address = %q, want %q", got, validAddress)
	}
	if got := u.Query().Get("season"); got != "" {
		t.Errorf("season param = %q, want it absent", got)
	}
}

func TestResolve_PreservesBaseQuery(t *testing.T) {
	cfg := testResolverConfig()
	cfg.Upstream.BonusURL = "https://bonus.example.net/api/bonus?v=2"
	r, err := NewResolver(cfg)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	target := r.Resolve(&model.ProxyRequest{Kind: model.KindBonus, Address: validAddress})

	u, err := url.Parse(target.URL)
	if err != nil {
		t.Fatalf("parse target URL: %v", err)
	}
	if got := u.Query().Get("v"); got != "2" {
		t.Errorf("base query param v = %q, want %q", got, "2")
	}
	if got := u.Query().Get("address"); got != validAddress {
		t.Errorf("address = %q, want %q", got, validAddress)
	}
}

func TestCheckSelfProxy(t *testing.T) {
	target := &model.UpstreamTarget{
		Kind: model.KindCalculator,
		URL:  "https://calc.example.net/api/calculator?address=0xabc",
		Host: "calc.example.net",
	}

	tests := []struct {
		name        string
		inboundHost string
		wantErr     bool
	}{
		{"different host", "proxy.example.org", false},
		{"no inbound host", "", false},
		{"same host", "calc.example.net", true},
		{"same host different case", "CALC.Example.NET", true},
		{"same name different port", "calc.example.net:8443", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSelfProxy(target, tt.inboundHost)

			if !tt.wantErr {
				if err != nil {
					t.Fatalf("CheckSelfProxy() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Fatal("CheckSelfProxy() expected error, got nil")
			}
			var selfProxy *SelfProxyError
			if !errors.As(err, &selfProxy) {
				t.Fatalf("error type = %T, want *SelfProxyError", err)
			}
			if selfProxy.Target != target.URL {
				t.Errorf("Target = %q, want %q", selfProxy.Target, target.URL)
			}
		})
	}
}

// Package model defines shared types for the proxy.
package model

import "net/http"

// Kind identifies which upstream a request is routed to.
type Kind string

// Recognized request kinds.
const (
	KindCalculator   Kind = "calculator"
	KindTransactions Kind = "transactions"
	KindBonus        Kind = "bonus"
)

// Kinds lists the allowed kind values, in the order reported to clients.
var Kinds = []Kind{KindCalculator, KindTransactions, KindBonus}

// ProxyRequest is a validated inbound request. Season is nil when the
// client did not supply one; the default policy applies downstream.
type ProxyRequest struct {
	Kind    Kind
	Address string
	Season  *int
	Raw     bool
}

// UpstreamTarget is the resolved outbound call: one whitelisted base URL
// with its query parameters already attached.
type UpstreamTarget struct {
	Kind Kind
	URL  string // fully built, query included
	Host string // host:port, for the self-proxy guard
}

// UpstreamResponse is the raw result of the single outbound GET.
type UpstreamResponse struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	Body        []byte
}

// ShapedResponse is what the handler relays to the client after optional
// season selection. Shaped is true when the body was locally replaced.
type ShapedResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Target      string // resolved upstream URL, for X-Proxy-Target
	Shaped      bool
	Match       bool // meaningful only when Shaped
	Season      int  // season actually requested, when Shaped
}

package service

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"seasons-proxy-go/internal/model"
)

// addressPattern is the EVM address shape: 0x followed by exactly 40 hex digits.
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// kindAliases maps accepted type/up parameter values to canonical kinds.
var kindAliases = map[string]model.Kind{
	"calculator":   model.KindCalculator,
	"base":         model.KindCalculator,
	"transactions": model.KindTransactions,
	"txs":          model.KindTransactions,
	"bonus":        model.KindBonus,
}

// InvalidParamError reports a rejected query parameter. Allowed is populated
// only for enum-like parameters so the client sees the accepted set.
type InvalidParamError struct {
	Param   string
	Value   string
	Allowed []string
}

func (e *InvalidParamError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid %s %q: allowed values are %s", e.Param, e.Value, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("invalid %s %q", e.Param, e.Value)
}

// allowedKindValues lists the accepted type parameter values in a stable order.
func allowedKindValues() []string {
	return []string{"calculator", "base", "transactions", "txs", "bonus"}
}

// ValidateRequest parses raw query parameters into a ProxyRequest.
// It is pure: no I/O, no side effects.
//
// Recognized parameters:
//   - type (legacy alias: up): request kind; empty means calculator.
//   - address: required, 0x + 40 hex digits, case-insensitive.
//   - season: optional, base-10 integer >= 0.
//   - raw: "1" or "true" (case-insensitive) skips response shaping.
func ValidateRequest(query url.Values) (*model.ProxyRequest, error) {
	rawKind := query.Get("type")
	if rawKind == "" {
		rawKind = query.Get("up")
	}

	kind := model.KindCalculator
	if rawKind != "" {
		k, ok := kindAliases[strings.ToLower(rawKind)]
		if !ok {
			return nil, &InvalidParamError{Param: "type", Value: rawKind, Allowed: allowedKindValues()}
		}
		kind = k
	}

	address := query.Get("address")
	if !addressPattern.MatchString(address) {
		return nil, &InvalidParamError{Param: "address", Value: address}
	}

	var season *int
	if s := query.Get("season"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, &InvalidParamError{Param: "season", Value: s}
		}
		season = &n
	}

	raw := false
	if v := strings.ToLower(query.Get("raw")); v == "1" || v == "true" {
		raw = true
	}

	return &model.ProxyRequest{
		Kind:    kind,
		Address: address,
		Season:  season,
		Raw:     raw,
	}, nil
}

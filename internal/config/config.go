// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/seasons-proxy/config.toml",
	"configs/config.toml",
}

// Default upstream base URLs. Overridable per kind via config, env, or CLI,
// never via request input.
const (
	DefaultCalculatorURL   = "https://api.dropstats.io/calculator"
	DefaultTransactionsURL = "https://api.dropstats.io/txs-per-season"
	DefaultBonusURL        = "https://api.dropstats.io/bonus"
)

// DefaultSeason is the season used when a request carries no season parameter
// and no override is configured.
const DefaultSeason = 2

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config          string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host            string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port            int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	CalculatorURL   string `kong:"help='Calculator upstream base URL (overrides config).',env='CALCULATOR_URL'"`
	TransactionsURL string `kong:"help='Transactions-per-season upstream base URL (overrides config).',env='TRANSACTIONS_URL'"`
	BonusURL        string `kong:"help='Bonus upstream base URL (overrides config).',env='BONUS_URL'"`
	DefaultSeason   *int   `kong:"help='Default season when the request has none (overrides config).',env='DEFAULT_SEASON'"`
	LogLevel        string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Season   SeasonConfig   `toml:"season"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// UpstreamConfig holds the whitelisted upstream base URLs and connection
// settings. TransactionsSeason, when set, overrides the global default
// season for the transactions kind only; a pointer so that season 0 stays
// distinguishable from an omitted key.
type UpstreamConfig struct {
	CalculatorURL      string `toml:"calculator_url"`
	TransactionsURL    string `toml:"transactions_url"`
	BonusURL           string `toml:"bonus_url"`
	TransactionsSeason *int   `toml:"transactions_season"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	IdleConnections    int    `toml:"idle_connections"`
}

// SeasonConfig holds the global default season number.
type SeasonConfig struct {
	Default *int `toml:"default"` // pointer: 0 is a valid season
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/seasons-proxy/config.toml then configs/config.toml. A missing config
// file is not an error: every setting has a built-in default.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.CalculatorURL != "" {
		c.Upstream.CalculatorURL = cli.CalculatorURL
	}
	if cli.TransactionsURL != "" {
		c.Upstream.TransactionsURL = cli.TransactionsURL
	}
	if cli.BonusURL != "" {
		c.Upstream.BonusURL = cli.BonusURL
	}
	if cli.DefaultSeason != nil {
		c.Season.Default = cli.DefaultSeason
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	// Upstream URLs: each override, when present, must parse and carry a host.
	for _, u := range []struct {
		key string
		val string
	}{
		{"upstream.calculator_url", c.Upstream.CalculatorURL},
		{"upstream.transactions_url", c.Upstream.TransactionsURL},
		{"upstream.bonus_url", c.Upstream.BonusURL},
	} {
		if u.val == "" {
			continue
		}
		parsed, err := url.Parse(u.val)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", u.key, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s must use HTTP or HTTPS; got %q", u.key, u.val)
		}
		if parsed.Host == "" {
			return fmt.Errorf("%s has no host; got %q", u.key, u.val)
		}
	}

	// Season numbers are non-negative.
	if c.Season.Default != nil && *c.Season.Default < 0 {
		return fmt.Errorf("season.default must be non-negative; got %d", *c.Season.Default)
	}
	if c.Upstream.TransactionsSeason != nil && *c.Upstream.TransactionsSeason < 0 {
		return fmt.Errorf("upstream.transactions_season must be non-negative; got %d", *c.Upstream.TransactionsSeason)
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{"/api/proxy", "/healthz", "/proxy/status"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, TimeoutSeconds, etc.), zero means "unset" because
// TOML cannot distinguish between an explicit 0 and an omitted key; the season
// fields use pointers for exactly that reason, since season 0 is meaningful.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1 * 1024 * 1024 // 1 MB; inbound requests carry no body
	}
	if c.Upstream.CalculatorURL == "" {
		c.Upstream.CalculatorURL = DefaultCalculatorURL
	}
	if c.Upstream.TransactionsURL == "" {
		c.Upstream.TransactionsURL = DefaultTransactionsURL
	}
	if c.Upstream.BonusURL == "" {
		c.Upstream.BonusURL = DefaultBonusURL
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 15
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Season.Default == nil {
		def := DefaultSeason
		c.Season.Default = &def
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// TransactionsDefaultSeason returns the default season attached to outbound
// transactions calls: the transactions-specific override when configured,
// else the global default.
func (c *Config) TransactionsDefaultSeason() int {
	if c.Upstream.TransactionsSeason != nil {
		return *c.Upstream.TransactionsSeason
	}
	return *c.Season.Default
}

// GlobalDefaultSeason returns the season used by the calculator shaper when
// the request carries no explicit season.
func (c *Config) GlobalDefaultSeason() int {
	return *c.Season.Default
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}

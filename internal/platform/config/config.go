package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL     = "http://localhost:8000"
	defaultBridgePath     = "/wbs/pay/"
	defaultRequestTimeout = 8 * time.Second
	defaultDialTimeout    = 10 * time.Second

	defaultGatewayPort         = "8000"
	defaultGatewayReadTimeout  = 15 * time.Second
	defaultGatewayWriteTimeout = 30 * time.Second
	defaultGatewayIdleTimeout  = 120 * time.Second
	defaultIdempotencyTTL      = 24 * time.Hour
	defaultCataloguePath       = "catalogue.yaml"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	API     APIConfig
	Bridge  BridgeConfig
	Gateway GatewayConfig
}

// APIConfig configures the storefront's REST client.
type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// BridgeConfig configures the payment bridge connection.
type BridgeConfig struct {
	URL         string
	DialTimeout time.Duration
}

// GatewayConfig configures the local development gateway binary.
type GatewayConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	IdempotencyTTL time.Duration
	CataloguePath  string
}

// Option customises configuration loading.
type Option func(*loader)

type loader struct {
	lookup func(string) string
}

// WithLookup overrides the environment lookup function, primarily for tests.
func WithLookup(fn func(string) string) Option {
	return func(l *loader) {
		if fn != nil {
			l.lookup = fn
		}
	}
}

// Load reads configuration from SHOP_-prefixed environment variables,
// applying defaults and validating the result.
func Load(opts ...Option) (Config, error) {
	l := &loader{lookup: os.Getenv}
	for _, opt := range opts {
		opt(l)
	}

	cfg := Config{
		API: APIConfig{
			BaseURL:        l.stringValue("SHOP_API_BASE_URL", defaultAPIBaseURL),
			RequestTimeout: l.durationValue("SHOP_API_REQUEST_TIMEOUT", defaultRequestTimeout),
		},
		Bridge: BridgeConfig{
			URL:         l.stringValue("SHOP_BRIDGE_URL", ""),
			DialTimeout: l.durationValue("SHOP_BRIDGE_DIAL_TIMEOUT", defaultDialTimeout),
		},
		Gateway: GatewayConfig{
			Port:           l.stringValue("SHOP_GATEWAY_PORT", defaultGatewayPort),
			ReadTimeout:    l.durationValue("SHOP_GATEWAY_READ_TIMEOUT", defaultGatewayReadTimeout),
			WriteTimeout:   l.durationValue("SHOP_GATEWAY_WRITE_TIMEOUT", defaultGatewayWriteTimeout),
			IdleTimeout:    l.durationValue("SHOP_GATEWAY_IDLE_TIMEOUT", defaultGatewayIdleTimeout),
			IdempotencyTTL: l.durationValue("SHOP_GATEWAY_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
			CataloguePath:  l.stringValue("SHOP_GATEWAY_CATALOGUE", defaultCataloguePath),
		},
	}

	if cfg.Bridge.URL == "" {
		cfg.Bridge.URL = deriveBridgeURL(cfg.API.BaseURL)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("config: invalid api base url %q", c.API.BaseURL))
	}
	if u, err := url.Parse(c.Bridge.URL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		errs = append(errs, fmt.Errorf("config: invalid bridge url %q", c.Bridge.URL))
	}
	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("config: api request timeout must be positive"))
	}
	if c.Bridge.DialTimeout <= 0 {
		errs = append(errs, errors.New("config: bridge dial timeout must be positive"))
	}
	if strings.TrimSpace(c.Gateway.Port) == "" {
		errs = append(errs, errors.New("config: gateway port is required"))
	}

	return errors.Join(errs...)
}

// deriveBridgeURL rewrites the API base URL scheme to its websocket
// counterpart and appends the well-known bridge path.
func deriveBridgeURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = defaultBridgePath
	return u.String()
}

func (l *loader) stringValue(key, fallback string) string {
	if value := strings.TrimSpace(l.lookup(key)); value != "" {
		return value
	}
	return fallback
}

func (l *loader) durationValue(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(l.lookup(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

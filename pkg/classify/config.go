package classify

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultURL is the classify endpoint of a locally running service.
const DefaultURL = "http://localhost:5001/classify"

// DefaultTimeout bounds a single classification round-trip.
const DefaultTimeout = 5 * time.Second

// Config holds client configuration.
type Config struct {
	URL       string // classify endpoint
	HealthURL string // derived from URL when empty

	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithURL sets the classify endpoint.
func WithURL(url string) Option {
	return func(c *Config) { c.URL = url }
}

// WithHealthURL sets the health endpoint explicitly.
func WithHealthURL(url string) Option {
	return func(c *Config) { c.HealthURL = url }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the configuration used by the demo.
func DefaultConfig() *Config {
	return &Config{
		URL:     DefaultURL,
		Timeout: DefaultTimeout,
		Logger:  slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

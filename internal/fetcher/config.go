package fetcher

import "time"

// Default configuration values.
const (
	defaultUserAgent      = "Mozilla/5.0 (compatible; NorthCloud-Harvester/1.0)"
	defaultRequestTimeout = 30 * time.Second
	defaultMaxConnections = 100
	defaultKeepAlive      = 20
	defaultIdleTimeout    = 90 * time.Second
	defaultMaxRedirects   = 10
	defaultMaxBodyBytes   = 10 * 1024 * 1024
	defaultRobotsCacheTTL = 24 * time.Hour
)

var defaultRetryDelays = []time.Duration{2 * time.Second, 5 * time.Second}

// Config holds fetcher configuration.
type Config struct {
	UserAgent      string          `mapstructure:"user_agent"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout" validate:"gte=0"`
	RetryDelays    []time.Duration `mapstructure:"retry_delays"`
	// MaxConnections caps concurrent connections per host on the shared transport.
	MaxConnections int `mapstructure:"max_connections" validate:"gte=0"`
	// KeepAlive is the number of idle connections kept for reuse.
	KeepAlive    int   `mapstructure:"keep_alive" validate:"gte=0"`
	MaxRedirects int   `mapstructure:"max_redirects" validate:"gte=0"`
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" validate:"gte=0"`
	// RateLimit is requests per second per host. Zero disables limiting.
	RateLimit      float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst      int           `mapstructure:"rate_burst" validate:"gte=0"`
	RespectRobots  bool          `mapstructure:"respect_robots"`
	RobotsCacheTTL time.Duration `mapstructure:"robots_cache_ttl"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.RetryDelays == nil {
		c.RetryDelays = defaultRetryDelays
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = defaultMaxConnections
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = defaultKeepAlive
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = defaultMaxRedirects
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.RobotsCacheTTL <= 0 {
		c.RobotsCacheTTL = defaultRobotsCacheTTL
	}
	return c
}

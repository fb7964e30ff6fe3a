package llm

import "time"

const (
	defaultModel            = "claude-3-5-haiku-latest"
	defaultTemperature      = 0.01
	defaultMaxTokens        = 4096
	defaultMaxInputChars    = 29999
	defaultRateLimitBackoff = 60 * time.Second
)

// Config holds the model endpoint settings.
type Config struct {
	// Enabled turns the model tier on. Without an API key the tier stays off.
	Enabled     bool    `mapstructure:"enabled"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url" validate:"omitempty,url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=1"`
	MaxTokens   int64   `mapstructure:"max_tokens" validate:"gte=0"`
	// MaxInputChars is the largest page text the tier will send.
	MaxInputChars    int           `mapstructure:"max_input_chars" validate:"gte=0"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.MaxInputChars == 0 {
		c.MaxInputChars = defaultMaxInputChars
	}
	if c.RateLimitBackoff == 0 {
		c.RateLimitBackoff = defaultRateLimitBackoff
	}
	return c
}

// Usable reports whether the tier can run.
func (c Config) Usable() bool {
	return c.Enabled && c.APIKey != ""
}

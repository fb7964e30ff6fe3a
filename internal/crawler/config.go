package crawler

const (
	defaultMaxDepth      = 3
	defaultMaxPages      = 500
	defaultSmartMaxPages = 1000
	legacyNewsLinkGate   = 3
)

// Config bounds traversal and selects the listing policy.
type Config struct {
	// MaxDepth is a pointer so an explicit 0 (entry page only) is kept.
	MaxDepth *int `mapstructure:"max_depth" validate:"omitempty,gte=0"`
	MaxPages int  `mapstructure:"max_pages" validate:"gte=0"`
	// SmartMaxPages bounds the BFS behind SmartCrawl.
	SmartMaxPages int `mapstructure:"smart_max_pages" validate:"gte=0"`
	// Mode "loose" also treats a page with a few news-like links as a
	// listing, as the older single-page crawler did.
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=strict loose"`
	// LegacyNewsLinks is the loose-mode link gate.
	LegacyNewsLinks int  `mapstructure:"legacy_news_links" validate:"gte=0"`
	RespectRobots   bool `mapstructure:"respect_robots"`
	// WithinDays drops probed articles older than this many days. Zero keeps all.
	WithinDays int `mapstructure:"within_days" validate:"gte=0"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.MaxDepth == nil {
		depth := defaultMaxDepth
		c.MaxDepth = &depth
	}
	if c.MaxPages == 0 {
		c.MaxPages = defaultMaxPages
	}
	if c.SmartMaxPages == 0 {
		c.SmartMaxPages = defaultSmartMaxPages
	}
	if c.LegacyNewsLinks == 0 {
		c.LegacyNewsLinks = legacyNewsLinkGate
	}
	if c.Mode == "" {
		c.Mode = "strict"
	}
	return c
}

// Depth is the configured link depth bound.
func (c Config) Depth() int {
	if c.MaxDepth == nil {
		return defaultMaxDepth
	}
	return *c.MaxDepth
}

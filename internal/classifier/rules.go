package classifier

import (
	"regexp"

	"github.com/jonesrussell/north-cloud/harvester/internal/pubdate"
)

// Strictness presets for the news-link threshold.
const (
	ModeStrict = "strict"
	ModeLoose  = "loose"

	strictNewsLinkThreshold = 20
	looseNewsLinkThreshold  = 8
	defaultDateThreshold    = 5
	defaultTextSample       = 100000
)

// DefaultDetailPatterns match URL paths that are article detail pages on
// their own: date-coded ids, content ids and dated UUID paths.
var DefaultDetailPatterns = []string{
	`/t\d{8}_\d+\.html$`,
	`/\d{6,8}/t\d{8}_\d+\.html$`,
	`/content_\d+\.html$`,
	`/\d{4}(?:\d{2})?/\d{2}/[0-9a-f-]{8,}\.html$`,
}

// DefaultListClassHints are selectors whose presence marks a listing page.
var DefaultListClassHints = []string{
	".pagination", ".pager", ".pagebar", ".page", ".pages",
	".list", ".news-list", ".list-unstyled", ".list-group",
}

// Rules is the data table driving classification. Build one with NewRules
// and treat it as immutable afterwards.
type Rules struct {
	DetailPatterns    []*regexp.Regexp
	ListClassHints    []string
	DatePattern       *regexp.Regexp
	DateThreshold     int
	TextSample        int
	NewsLinkThreshold int
}

// RulesConfig is the configurable form of Rules.
type RulesConfig struct {
	Mode              string   `mapstructure:"mode" validate:"omitempty,oneof=strict loose"`
	DetailPatterns    []string `mapstructure:"detail_patterns"`
	ListClassHints    []string `mapstructure:"list_class_hints"`
	DateThreshold     int      `mapstructure:"date_threshold" validate:"gte=0"`
	TextSample        int      `mapstructure:"text_sample" validate:"gte=0"`
	NewsLinkThreshold int      `mapstructure:"news_link_threshold" validate:"gte=0"`
}

// NewRules compiles cfg, filling unset fields with defaults. Invalid
// patterns are skipped.
func NewRules(cfg RulesConfig) Rules {
	patterns := cfg.DetailPatterns
	if len(patterns) == 0 {
		patterns = DefaultDetailPatterns
	}
	hints := cfg.ListClassHints
	if len(hints) == 0 {
		hints = DefaultListClassHints
	}

	r := Rules{
		DetailPatterns:    compilePatterns(patterns),
		ListClassHints:    hints,
		DatePattern:       pubdate.DensityPattern,
		DateThreshold:     cfg.DateThreshold,
		TextSample:        cfg.TextSample,
		NewsLinkThreshold: cfg.NewsLinkThreshold,
	}
	if r.DateThreshold <= 0 {
		r.DateThreshold = defaultDateThreshold
	}
	if r.TextSample <= 0 {
		r.TextSample = defaultTextSample
	}
	if r.NewsLinkThreshold <= 0 {
		r.NewsLinkThreshold = strictNewsLinkThreshold
		if cfg.Mode == ModeLoose {
			r.NewsLinkThreshold = looseNewsLinkThreshold
		}
	}
	return r
}

// DefaultRules is NewRules with a zero config.
func DefaultRules() Rules {
	return NewRules(RulesConfig{})
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		out = append(out, re)
	}
	return out
}

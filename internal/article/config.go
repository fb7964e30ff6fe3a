package article

const (
	defaultMinTitleChars     = 4
	defaultMinContentChars   = 100
	defaultMinContainerChars = 200
	defaultLinkPenalty       = 20
)

// DefaultContainerSelectors are the content containers the rules tier scores.
var DefaultContainerSelectors = []string{
	"article", ".article", ".content", ".article-content",
	".newstext", ".news-content", "#content",
}

// DefaultErrorTitlePrefixes mark titles of server error and not-found pages.
var DefaultErrorTitlePrefixes = []string{"服务器错误", "您访问的页面", "403", "出错了"}

// DefaultErrorContentPrefixes mark bodies that are a consent banner, not an article.
var DefaultErrorContentPrefixes = []string{"This website uses cookies"}

// DefaultMetaDateNames are <meta> names carrying a publish time.
var DefaultMetaDateNames = []string{
	"article:published_time", "publish_time", "pubdate", "PubDate",
	"publishdate", "date", "dc.date", "DC.date.issued",
}

// Config tunes the extraction tiers.
type Config struct {
	MinTitleChars     int `mapstructure:"min_title_chars" validate:"gte=0"`
	MinContentChars   int `mapstructure:"min_content_chars" validate:"gte=0"`
	MinContainerChars int `mapstructure:"min_container_chars" validate:"gte=0"`
	// LinkPenalty is subtracted from a container's text length per link.
	LinkPenalty          int      `mapstructure:"link_penalty" validate:"gte=0"`
	ContainerSelectors   []string `mapstructure:"container_selectors"`
	ErrorTitlePrefixes   []string `mapstructure:"error_title_prefixes"`
	ErrorContentPrefixes []string `mapstructure:"error_content_prefixes"`
	MetaDateNames        []string `mapstructure:"meta_date_names"`
	// DisableTitleRefinement keeps the extracted title as is.
	DisableTitleRefinement bool `mapstructure:"disable_title_refinement"`
	// Sites adds selector-based extractors for specific domains.
	Sites []SiteSelectors `mapstructure:"sites" validate:"dive"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.MinTitleChars == 0 {
		c.MinTitleChars = defaultMinTitleChars
	}
	if c.MinContentChars == 0 {
		c.MinContentChars = defaultMinContentChars
	}
	if c.MinContainerChars == 0 {
		c.MinContainerChars = defaultMinContainerChars
	}
	if c.LinkPenalty == 0 {
		c.LinkPenalty = defaultLinkPenalty
	}
	if len(c.ContainerSelectors) == 0 {
		c.ContainerSelectors = DefaultContainerSelectors
	}
	if len(c.ErrorTitlePrefixes) == 0 {
		c.ErrorTitlePrefixes = DefaultErrorTitlePrefixes
	}
	if len(c.ErrorContentPrefixes) == 0 {
		c.ErrorContentPrefixes = DefaultErrorContentPrefixes
	}
	if len(c.MetaDateNames) == 0 {
		c.MetaDateNames = DefaultMetaDateNames
	}
	return c
}

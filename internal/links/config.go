package links

// Sources toggles each candidate source independently.
type Sources struct {
	Anchors    bool `mapstructure:"anchors"`
	JSNav      bool `mapstructure:"js_nav"`
	Scripts    bool `mapstructure:"scripts"`
	Pagination bool `mapstructure:"pagination"`
}

// AllSources enables every source.
func AllSources() Sources {
	return Sources{Anchors: true, JSNav: true, Scripts: true, Pagination: true}
}

// Config holds the data tables for link extraction.
type Config struct {
	Sources       *Sources `mapstructure:"sources"`
	ExcludedZones []string `mapstructure:"excluded_zones"`
	NewsKeywords  []string `mapstructure:"news_keywords"`
	AnchorTerms   []string `mapstructure:"anchor_terms"`
	// SkipExtensions are file suffixes never treated as pages.
	SkipExtensions []string `mapstructure:"skip_extensions"`
	// NavPrefixes are path prefixes for search, feeds and tag indexes.
	NavPrefixes []string `mapstructure:"nav_prefixes"`
}

// DefaultExcludedZones are ancestors whose links are navigation chrome.
var DefaultExcludedZones = []string{
	"header", "nav", "footer",
	".submenu", ".sub-menu", ".dropdown", ".dropdown-menu", ".menu", ".menus", ".navbar",
	".top-nav", ".topbar", ".toolbar", ".bread", ".breadcrumb", ".breadcrumbs",
	".sidebar", ".aside", ".left-nav", ".right-nav", ".sidenav", ".side-menu",
	".pager", ".pagination", ".pagebar", ".pages", ".tab", ".tabs", ".tabbar",
	".logo", ".site-nav", ".global-nav",
}

// DefaultNewsKeywords are path segments (or segment prefixes) typical of
// article URLs, covering English paths and pinyin abbreviations used by
// Chinese government and media sites.
var DefaultNewsKeywords = []string{
	"news", "article", "articles", "story", "post", "press", "newsroom", "media",
	"notice", "bulletin", "report", "reports", "updates", "content", "detail", "info",
	"xw", "xwzx", "xwdt", "xwfb", "zwgk", "zwdt", "gzdt", "tzgg", "tpxw", "ywdt",
	"zcfg", "zcjd", "gsgg", "dtxx", "art", "col",
}

// DefaultAnchorTerms in anchor text hint at an article link.
var DefaultAnchorTerms = []string{
	"通知", "公告", "新闻", "动态", "发布", "印发", "会议", "关于", "政策", "解读", "公示", "报道",
	"news", "announcement", "press release", "report",
}

// DefaultSkipExtensions name downloads and media, never HTML pages.
var DefaultSkipExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".wps", ".txt", ".csv",
	".zip", ".rar", ".7z", ".gz", ".tar", ".exe", ".apk", ".dmg",
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".ico",
	".mp3", ".mp4", ".avi", ".mov", ".wmv", ".flv", ".wav",
	".css", ".js", ".json", ".xml", ".woff", ".woff2", ".ttf",
}

// DefaultNavPrefixes are path prefixes for site utilities rather than content.
var DefaultNavPrefixes = []string{"/search", "/s/", "/rss", "/sitemap", "/tag", "/category", "/login"}

// WithDefaults fills empty tables.
func (c Config) WithDefaults() Config {
	if c.Sources == nil {
		all := AllSources()
		c.Sources = &all
	}
	if len(c.ExcludedZones) == 0 {
		c.ExcludedZones = DefaultExcludedZones
	}
	if len(c.NewsKeywords) == 0 {
		c.NewsKeywords = DefaultNewsKeywords
	}
	if len(c.AnchorTerms) == 0 {
		c.AnchorTerms = DefaultAnchorTerms
	}
	if c.SkipExtensions == nil {
		c.SkipExtensions = DefaultSkipExtensions
	}
	if c.NavPrefixes == nil {
		c.NavPrefixes = DefaultNavPrefixes
	}
	return c
}

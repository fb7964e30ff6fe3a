package crawler

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/harvester/internal/article"
	"github.com/jonesrussell/north-cloud/harvester/internal/classifier"
	"github.com/jonesrussell/north-cloud/harvester/internal/frontier"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
)

// SectionResult is what a section walk collected. It is returned even when
// the walk stopped early.
type SectionResult struct {
	CrawlID    string             `json:"crawl_id"`
	Entry      string             `json:"entry"`
	Base       string             `json:"base"`
	Articles   []*article.Article `json:"articles,omitempty"`
	DetailURLs []string           `json:"detail_urls"`
	Visited    int                `json:"visited"`
	Metrics    metrics.Snapshot   `json:"metrics"`
}

// walk is the state of one breadth-first section traversal.
type walk struct {
	base     string
	queue    *frontier.Queue
	maxDepth int
	maxPages int
	extract  bool
	m        *metrics.Metrics
	log      logger.Logger
	result   *SectionResult
	detail   map[string]bool
}

// CrawlSection walks entry's section breadth first and extracts every
// detail page it reaches. Detail pages are not expanded. A negative
// maxDepth or non-positive maxPages falls back to the configured bound.
func (c *Crawler) CrawlSection(ctx context.Context, entry string, maxDepth, maxPages int) *SectionResult {
	return c.runSection(ctx, entry, maxDepth, maxPages, true, nil)
}

// CollectDetailURLs is CrawlSection without extraction: it returns the
// canonical URLs of the detail pages reached.
func (c *Crawler) CollectDetailURLs(ctx context.Context, entry string, maxDepth, maxPages int) *SectionResult {
	return c.runSection(ctx, entry, maxDepth, maxPages, false, nil)
}

// SmartCrawl extracts entry directly when it is a detail page or its host
// has a site override. Otherwise it
// walks the section from entry and returns the detail URLs found as a
// listing result, which may be empty.
func (c *Crawler) SmartCrawl(ctx context.Context, entry string, opts ProbeOptions) Result {
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	l, reason := c.load(ctx, c.log, entry, m)
	if l == nil {
		m.ExtractionFailed(string(reason), nil)
		return networkFailure(entry, reason)
	}
	if c.siteOverride(l) {
		m.PageVisited()
		m.Classified(string(classifier.Detail))
		return c.extractArticle(ctx, c.log, l, classifier.Detail, opts, m)
	}
	if c.articles.LooksLikeErrorPage(l.page) {
		m.ExtractionFailed(string(ReasonNetwork), nil)
		return networkFailure(l.finalURL, ReasonNetwork)
	}

	cls := c.classifier.Classify(l.page)
	if c.isDetail(l, cls) {
		m.PageVisited()
		m.Classified(string(classifier.Detail))
		return c.extractArticle(ctx, c.log, l, classifier.Detail, opts, m)
	}

	res := c.runSection(ctx, entry, c.cfg.Depth(), c.cfg.SmartMaxPages, false, &preloaded{loaded: l, cls: cls, m: m})
	return Result{Status: StatusListing, URL: l.finalURL, Kind: cls.Kind, URLs: res.DetailURLs}
}

// preloaded lets SmartCrawl hand its already fetched entry to the walk.
type preloaded struct {
	loaded *loaded
	cls    classifier.Result
	m      *metrics.Metrics
}

func (c *Crawler) runSection(
	ctx context.Context,
	entry string,
	maxDepth, maxPages int,
	extract bool,
	first *preloaded,
) *SectionResult {
	if maxDepth < 0 {
		maxDepth = c.cfg.Depth()
	}
	if maxPages <= 0 {
		maxPages = c.cfg.MaxPages
	}

	id := uuid.NewString()
	base, err := frontier.Canonicalize(entry)
	if err != nil {
		base = entry
	}

	m := metrics.New()
	if first != nil {
		m = first.m
	}

	w := &walk{
		base:     base,
		queue:    frontier.NewQueue(maxDepth),
		maxDepth: maxDepth,
		maxPages: maxPages,
		extract:  extract,
		m:        m,
		log: c.log.With(
			logger.String("crawl_id", id),
			logger.String("entry_url", entry),
		),
		result: &SectionResult{CrawlID: id, Entry: entry},
		detail: make(map[string]bool),
	}
	w.queue.Push(base, 0)

	w.log.Info("Section crawl started",
		logger.Int("max_depth", maxDepth),
		logger.Int("max_pages", maxPages),
		logger.Bool("extract", extract),
	)

	c.walk(ctx, w, first)

	w.result.Base = w.base
	w.result.Metrics = m.Snapshot()
	w.log.Info("Section crawl finished",
		logger.Int("visited", w.result.Visited),
		logger.Int("pending", w.queue.Len()),
		logger.Int("detail_urls", len(w.result.DetailURLs)),
		logger.Int("articles", len(w.result.Articles)),
		logger.Duration("duration", w.result.Metrics.Duration),
	)
	return w.result
}

func (c *Crawler) walk(ctx context.Context, w *walk, first *preloaded) {
	for w.queue.Len() > 0 && w.result.Visited < w.maxPages {
		if ctx.Err() != nil {
			w.log.Info("Section crawl cancelled", logger.Error(ctx.Err()))
			return
		}

		item, _ := w.queue.Pop()
		if !c.allowed(ctx, w.log, item.URL) {
			w.m.RobotsSkipped()
			w.log.Debug("Disallowed by robots.txt", logger.URL(item.URL))
			continue
		}

		w.result.Visited++
		w.m.PageVisited()

		var (
			l   *loaded
			cls classifier.Result
		)
		if first != nil && item.Depth == 0 {
			l, cls = first.loaded, first.cls
			first = nil
		} else {
			var reason Reason
			l, reason = c.load(ctx, w.log, item.URL, w.m)
			if l == nil {
				w.m.ExtractionFailed(string(reason), nil)
				continue
			}
			cls = c.classifier.Classify(l.page)
		}
		w.m.Classified(string(cls.Kind))

		final, err := frontier.Canonicalize(l.finalURL)
		if err != nil {
			final = l.finalURL
		}
		w.queue.MarkSeen(final)
		if item.Depth == 0 && final != w.base {
			w.log.Debug("Entry redirected, rebasing section", logger.String("base", final))
			w.base = final
		}

		if c.isDetail(l, cls) {
			c.recordDetail(ctx, w, l, final)
			continue
		}

		if item.Depth >= w.maxDepth {
			continue
		}
		var admitted int
		for _, link := range c.links.SectionLinks(l.page, w.base) {
			if w.queue.Push(link, item.Depth+1) {
				admitted++
			}
		}
		w.log.Debug("Expanded listing",
			logger.URL(final),
			logger.Int("depth", item.Depth),
			logger.Int("admitted", admitted),
		)
	}
}

func (c *Crawler) recordDetail(ctx context.Context, w *walk, l *loaded, final string) {
	if !w.detail[final] {
		w.detail[final] = true
		w.result.DetailURLs = append(w.result.DetailURLs, final)
	}
	if !w.extract {
		return
	}

	a, err := c.articles.Extract(ctx, l.page)
	if err != nil {
		w.m.ExtractionFailed(string(reasonFor(err)), tiersOf(err))
		w.log.Debug("Detail page incomplete", logger.URL(final), logger.Error(err))
		return
	}
	w.m.ArticleExtracted(a.Tiers)
	w.result.Articles = append(w.result.Articles, a)
}

package crawler

import (
	"context"
	"maps"
	"time"

	"github.com/jonesrussell/north-cloud/harvester/internal/article"
	"github.com/jonesrussell/north-cloud/harvester/internal/classifier"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
	"github.com/jonesrussell/north-cloud/harvester/internal/pubdate"
)

// ProbeOptions carries caller-supplied fields merged into a produced
// article.
type ProbeOptions struct {
	Category string
	// Abstract, when set, replaces the extracted abstract.
	Abstract string
	Extra    map[string]string
	// WithinDays overrides Config.WithinDays when positive.
	WithinDays int
	// Metrics, when set, receives this probe's counters.
	Metrics *metrics.Metrics
}

// Probe handles one URL. Pages on a host with a site override are
// extracted by it without classification. Listing and unknown pages return their in-section
// links; when there are none the page is tried as an article. Detail pages
// are extracted directly. No error crosses this boundary.
func (c *Crawler) Probe(ctx context.Context, rawURL string, opts ProbeOptions) Result {
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	l, reason := c.load(ctx, c.log, rawURL, m)
	if l == nil {
		m.ExtractionFailed(string(reason), nil)
		return networkFailure(rawURL, reason)
	}
	m.PageVisited()

	if c.siteOverride(l) {
		c.log.Debug("Site override registered", logger.URL(l.finalURL))
		m.Classified(string(classifier.Detail))
		return c.extractArticle(ctx, c.log, l, classifier.Detail, opts, m)
	}

	if c.articles.LooksLikeErrorPage(l.page) {
		c.log.Info("Error page served", logger.URL(l.finalURL))
		m.ExtractionFailed(string(ReasonNetwork), nil)
		return networkFailure(l.finalURL, ReasonNetwork)
	}

	cls := c.classifier.Classify(l.page)
	m.Classified(string(cls.Kind))

	if cls.Kind != classifier.Detail {
		if urls := c.listingLinks(l); len(urls) > 0 {
			c.log.Debug("Listing page",
				logger.URL(l.finalURL),
				logger.String("kind", string(cls.Kind)),
				logger.Int("links", len(urls)),
			)
			return Result{Status: StatusListing, URL: l.finalURL, Kind: cls.Kind, URLs: urls}
		}
	}

	return c.extractArticle(ctx, c.log, l, cls.Kind, opts, m)
}

// siteOverride reports whether l's host has a registered site extractor.
func (c *Crawler) siteOverride(l *loaded) bool {
	_, ok := c.articles.Sites().Lookup(l.page.Host())
	return ok
}

// listingLinks returns the in-section links of a non-detail page. When the
// section yields nothing but the page still looks like a listing, same-site
// news-like links are returned instead.
func (c *Crawler) listingLinks(l *loaded) []string {
	if urls := c.links.SectionLinks(l.page, l.finalURL); len(urls) > 0 {
		return urls
	}

	news := c.links.NewsLinks(l.page)
	if len(news) == 0 {
		return nil
	}
	if c.classifier.IsListLike(l.page) {
		return news
	}
	if c.cfg.Mode == classifier.ModeLoose && len(news) >= c.cfg.LegacyNewsLinks {
		return news
	}
	return nil
}

func (c *Crawler) extractArticle(
	ctx context.Context,
	log logger.Logger,
	l *loaded,
	kind classifier.Kind,
	opts ProbeOptions,
	m *metrics.Metrics,
) Result {
	a, err := c.articles.Extract(ctx, l.page)
	if err != nil {
		reason := reasonFor(err)
		m.ExtractionFailed(string(reason), tiersOf(err))
		log.Info("Article extraction failed",
			logger.URL(l.finalURL),
			logger.String("reason", string(reason)),
			logger.Error(err),
		)
		return parseFailure(l.finalURL, kind, reason)
	}

	applyOptions(a, opts)

	days := c.cfg.WithinDays
	if opts.WithinDays > 0 {
		days = opts.WithinDays
	}
	if tooOld(a, days, a.CrawlTime) {
		m.ExtractionFailed(string(ReasonStale), a.Tiers)
		log.Info("Article too old, skipped",
			logger.URL(l.finalURL),
			logger.String("publish_time", a.PublishTime),
			logger.Int("within_days", days),
		)
		return parseFailure(l.finalURL, kind, ReasonStale)
	}

	m.ArticleExtracted(a.Tiers)
	return Result{Status: StatusArticle, URL: l.finalURL, Kind: kind, Article: a}
}

func applyOptions(a *article.Article, opts ProbeOptions) {
	if opts.Category != "" {
		a.Category = opts.Category
	}
	if opts.Abstract != "" {
		a.Abstract = opts.Abstract
	}
	if len(opts.Extra) > 0 {
		if a.Extra == nil {
			a.Extra = make(map[string]string, len(opts.Extra))
		}
		maps.Copy(a.Extra, opts.Extra)
	}
}

// tooOld reports whether a's normalized date falls before now minus days.
func tooOld(a *article.Article, days int, now time.Time) bool {
	if days <= 0 {
		return false
	}
	published, err := time.Parse(pubdate.Layout, a.PublishTime)
	if err != nil {
		return false
	}
	y, mo, d := now.AddDate(0, 0, -days).Date()
	return published.Before(time.Date(y, mo, d, 0, 0, 0, 0, time.UTC))
}

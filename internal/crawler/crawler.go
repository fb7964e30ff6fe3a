// Package crawler runs the page pipeline: fetch, decode, classify, then
// either extract an article or harvest in-section links. Probe handles one
// URL; CrawlSection and SmartCrawl walk a section breadth first.
package crawler

import (
	"context"
	"errors"

	"github.com/jonesrussell/north-cloud/harvester/internal/article"
	"github.com/jonesrussell/north-cloud/harvester/internal/classifier"
	"github.com/jonesrussell/north-cloud/harvester/internal/decoder"
	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
	"github.com/jonesrussell/north-cloud/harvester/internal/fetcher"
	"github.com/jonesrussell/north-cloud/harvester/internal/frontier"
	"github.com/jonesrussell/north-cloud/harvester/internal/links"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
)

var (
	errMissingFetcher    = errors.New("crawler: fetcher is required")
	errMissingDecoder    = errors.New("crawler: decoder is required")
	errMissingClassifier = errors.New("crawler: classifier is required")
	errMissingLinks      = errors.New("crawler: link extractor is required")
	errMissingArticles   = errors.New("crawler: article extractor is required")
)

// Fetcher retrieves one URL, following redirects.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error)
}

// RobotsGate decides whether a URL may be fetched.
type RobotsGate interface {
	Allowed(ctx context.Context, rawURL string) (bool, error)
}

// Params holds the crawler's collaborators.
type Params struct {
	Config     Config
	Fetcher    Fetcher
	Decoder    *decoder.Decoder
	Classifier *classifier.Classifier
	Links      *links.Extractor
	Scope      *frontier.Scope
	Articles   *article.Extractor
	// Robots is consulted only when Config.RespectRobots is set.
	Robots RobotsGate
	Logger logger.Logger
}

// Crawler is safe for concurrent use; every crawl invocation owns its own
// frontier.
type Crawler struct {
	cfg        Config
	fetcher    Fetcher
	decoder    *decoder.Decoder
	classifier *classifier.Classifier
	links      *links.Extractor
	scope      *frontier.Scope
	articles   *article.Extractor
	robots     RobotsGate
	log        logger.Logger
}

// New validates p and builds a Crawler.
func New(p Params) (*Crawler, error) {
	switch {
	case p.Fetcher == nil:
		return nil, errMissingFetcher
	case p.Decoder == nil:
		return nil, errMissingDecoder
	case p.Classifier == nil:
		return nil, errMissingClassifier
	case p.Links == nil:
		return nil, errMissingLinks
	case p.Articles == nil:
		return nil, errMissingArticles
	}
	if p.Scope == nil {
		p.Scope = frontier.NewScope()
	}
	if p.Logger == nil {
		p.Logger = logger.NewNop()
	}
	return &Crawler{
		cfg:        p.Config.WithDefaults(),
		fetcher:    p.Fetcher,
		decoder:    p.Decoder,
		classifier: p.Classifier,
		links:      p.Links,
		scope:      p.Scope,
		articles:   p.Articles,
		robots:     p.Robots,
		log:        p.Logger,
	}, nil
}

// Config returns the effective configuration.
func (c *Crawler) Config() Config {
	return c.cfg
}

// loaded is a page that made it through fetch and decode.
type loaded struct {
	page     *dom.Page
	finalURL string
}

// load fetches and decodes rawURL. A failure is reported as a Reason and
// never as an error.
func (c *Crawler) load(ctx context.Context, log logger.Logger, rawURL string, m *metrics.Metrics) (*loaded, Reason) {
	fp, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		m.FetchFailed()
		log.Info("Fetch failed", logger.URL(rawURL), logger.Error(err))
		return nil, ReasonNetwork
	}

	res, err := c.decoder.Decode(fp.Body, fp.Header)
	if err != nil {
		log.Info("Decode failed", logger.URL(fp.FinalURL), logger.Error(err))
		return nil, ReasonDecode
	}
	if res.Degraded {
		m.DecodeDegraded()
	}

	page, err := dom.Parse(fp.FinalURL, res.Text)
	if err != nil {
		log.Info("Parse failed", logger.URL(fp.FinalURL), logger.Error(err))
		return nil, ReasonDecode
	}
	return &loaded{page: page, finalURL: fp.FinalURL}, ""
}

// allowed applies the optional robots.txt gate.
func (c *Crawler) allowed(ctx context.Context, log logger.Logger, rawURL string) bool {
	if !c.cfg.RespectRobots || c.robots == nil {
		return true
	}
	ok, err := c.robots.Allowed(ctx, rawURL)
	if err != nil {
		log.Debug("Robots check failed, allowing", logger.URL(rawURL), logger.Error(err))
		return true
	}
	return ok
}

// isDetail applies the detail short-circuit used by the section walkers:
// a detail classification or a detail-shaped final URL.
func (c *Crawler) isDetail(l *loaded, cls classifier.Result) bool {
	return cls.Kind == classifier.Detail || c.classifier.IsDetailURL(l.finalURL)
}

// reasonFor maps an extraction error to a Reason.
func reasonFor(err error) Reason {
	if errors.Is(err, article.ErrOversize) {
		return ReasonOversize
	}
	return ReasonIncomplete
}

func tiersOf(err error) []string {
	var ae *article.Error
	if errors.As(err, &ae) {
		return ae.Tiers
	}
	return nil
}

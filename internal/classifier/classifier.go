// Package classifier decides whether a page is an article detail page, a
// listing page, or neither, from its URL shape and DOM structure.
package classifier

import (
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
)

// Kind is a page classification.
type Kind string

const (
	Detail  Kind = "detail"
	Listing Kind = "listing"
	Unknown Kind = "unknown"
)

// NewsLinkCounter counts distinct news-like links on a page.
type NewsLinkCounter interface {
	CountNewsLinks(page *dom.Page) int
}

// Signals records why a page was classified the way it was.
type Signals struct {
	DetailPath bool   `json:"detail_path"`
	ListHint   string `json:"list_hint,omitempty"`
	DateCount  int    `json:"date_count"`
	NewsLinks  int    `json:"news_links"`
}

// Result is a classification with its supporting signals.
type Result struct {
	Kind    Kind    `json:"kind"`
	Signals Signals `json:"signals"`
}

// Classifier is stateless after construction and safe for concurrent use.
type Classifier struct {
	rules   Rules
	counter NewsLinkCounter
}

// New creates a classifier. counter may be nil, which disables the
// news-link signal.
func New(rules Rules, counter NewsLinkCounter) *Classifier {
	return &Classifier{rules: rules, counter: counter}
}

// Rules returns the classifier's table.
func (c *Classifier) Rules() Rules {
	return c.rules
}

// IsDetailURL reports whether rawURL's path matches a detail pattern.
func (c *Classifier) IsDetailURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return c.isDetailPath(u.Path)
}

func (c *Classifier) isDetailPath(p string) bool {
	for _, re := range c.rules.DetailPatterns {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

// Classify inspects page. A detail-path match returns Detail without running
// any listing heuristic. Otherwise list class hints, date density and the
// news-link count are checked in that order.
func (c *Classifier) Classify(page *dom.Page) Result {
	if c.isDetailPath(page.URL.Path) {
		return Result{Kind: Detail, Signals: Signals{DetailPath: true}}
	}

	var sig Signals

	for _, hint := range c.rules.ListClassHints {
		if page.Doc.Find(hint).Length() > 0 {
			sig.ListHint = hint
			return Result{Kind: Listing, Signals: sig}
		}
	}

	sig.DateCount = c.countDates(page)
	if sig.DateCount >= c.rules.DateThreshold {
		return Result{Kind: Listing, Signals: sig}
	}

	if c.counter != nil {
		sig.NewsLinks = c.counter.CountNewsLinks(page)
		if sig.NewsLinks >= c.rules.NewsLinkThreshold {
			return Result{Kind: Listing, Signals: sig}
		}
	}

	return Result{Kind: Unknown, Signals: sig}
}

// IsListLike reports the structural listing signals only: class hints or
// date density.
func (c *Classifier) IsListLike(page *dom.Page) bool {
	for _, hint := range c.rules.ListClassHints {
		if page.Doc.Find(hint).Length() > 0 {
			return true
		}
	}
	return c.countDates(page) >= c.rules.DateThreshold
}

func (c *Classifier) countDates(page *dom.Page) int {
	text := dom.SpacedText(page.Doc.Selection)
	if len(text) > c.rules.TextSample {
		text = strings.ToValidUTF8(text[:c.rules.TextSample], "")
	}
	return len(c.rules.DatePattern.FindAllStringIndex(text, -1))
}

// Package links harvests candidate URLs from a page: anchors, JavaScript
// navigation attributes, inline script data and pagination controls.
package links

import (
	"encoding/json"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
	"github.com/jonesrussell/north-cloud/harvester/internal/frontier"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
)

// Source names where a candidate was found.
type Source string

const (
	SourceAnchor     Source = "anchor"
	SourceJSNav      Source = "js_nav"
	SourceScript     Source = "script"
	SourcePagination Source = "pagination"
)

const (
	minScriptLen    = 5
	minScriptURLLen = 7
)

var skipPrefixes = []string{"#", "javascript:", "mailto:", "tel:", "data:", "about:"}

var (
	onclickURL = regexp.MustCompile(`(?i)(?:window\.open|location\.href\s*=|open)\s*\(\s*['"]([^'"]+)['"]`)
	// locationAssign covers onclick="location.href='/x.html'" without parens.
	locationAssign = regexp.MustCompile(`(?i)(?:window\.)?location(?:\.href)?\s*=\s*['"]([^'"]+)['"]`)
	scriptURL      = regexp.MustCompile(`"((?:https?:)?//[^"'\s]+?|/[^"'\s]+?)"|'((?:https?:)?//[^"'\s]+?|/[^"'\s]+?)'`)
	appStateMarker = regexp.MustCompile(`__INITIAL_STATE__|__NEXT_DATA__|__NUXT__|__APOLLO_STATE__`)
)

const jsNavSelector = `[onclick], [data-href], [data-url], [data-link], [data-target], [role="link"], [role="button"]`

var dataAttrs = []string{"data-href", "data-url", "data-link", "data-target"}

var paginationSelectors = []string{".pagination a", ".pager a", ".pages a", ".pagebar a", `a[rel="next"]`}

// Candidate is a canonical same-site URL discovered on a page.
type Candidate struct {
	URL    string
	Source Source
	// Text is the anchor text, when the candidate came from an element.
	Text string
}

// Extractor is immutable after construction and safe for concurrent use.
type Extractor struct {
	cfg       Config
	excluded  string
	scope     *frontier.Scope
	newsLike  *newsScorer
	skipExt   map[string]bool
	navPrefix []string
	log       logger.Logger
}

// New builds an Extractor. scope decides same-site and same-section.
func New(cfg Config, scope *frontier.Scope, log logger.Logger) *Extractor {
	cfg = cfg.WithDefaults()
	if scope == nil {
		scope = frontier.NewScope()
	}
	if log == nil {
		log = logger.NewNop()
	}

	skip := make(map[string]bool, len(cfg.SkipExtensions))
	for _, ext := range cfg.SkipExtensions {
		skip[strings.ToLower(ext)] = true
	}

	return &Extractor{
		cfg:       cfg,
		excluded:  strings.Join(cfg.ExcludedZones, ", "),
		scope:     scope,
		newsLike:  newNewsScorer(cfg.NewsKeywords, cfg.AnchorTerms),
		skipExt:   skip,
		navPrefix: cfg.NavPrefixes,
		log:       log,
	}
}

// Extract returns every canonical same-site candidate on page, sorted by URL.
// When a URL is found by several sources the first source in
// anchor, js_nav, script, pagination order is kept.
func (e *Extractor) Extract(page *dom.Page) []Candidate {
	found := make(map[string]Candidate)
	add := func(raw string, src Source, text string) {
		u, ok := e.accept(page, raw)
		if !ok {
			return
		}
		if _, dup := found[u]; !dup {
			found[u] = Candidate{URL: u, Source: src, Text: text}
		}
	}

	src := e.cfg.Sources
	if src.Anchors {
		e.anchors(page, add)
	}
	if src.JSNav {
		e.jsNav(page, add)
	}
	if src.Scripts {
		e.scripts(page, add)
	}
	if src.Pagination {
		e.pagination(page, add)
	}

	out := make([]Candidate, 0, len(found))
	for _, c := range found {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// SectionLinks returns the candidates inside base's section, excluding the
// page itself. base is normally the crawl's entry URL.
func (e *Extractor) SectionLinks(page *dom.Page, base string) []string {
	self, _ := frontier.Canonicalize(page.URL.String())

	var out []string
	for _, c := range e.Extract(page) {
		if c.URL == self {
			continue
		}
		if e.scope.SameSection(base, c.URL) {
			out = append(out, c.URL)
		}
	}
	return out
}

// NewsLinks returns same-site anchors that pass the news-like test,
// ignoring section scope.
func (e *Extractor) NewsLinks(page *dom.Page) []string {
	self, _ := frontier.Canonicalize(page.URL.String())

	var out []string
	for _, c := range e.Extract(page) {
		if c.URL != self && e.IsNewsLike(c.URL, c.Text) {
			out = append(out, c.URL)
		}
	}
	return out
}

// CountNewsLinks implements classifier.NewsLinkCounter.
func (e *Extractor) CountNewsLinks(page *dom.Page) int {
	return len(e.NewsLinks(page))
}

// IsNewsLike scores a canonical URL and its anchor text.
func (e *Extractor) IsNewsLike(rawURL, anchorText string) bool {
	return e.newsLike.score(rawURL, anchorText)
}

// accept resolves, canonicalizes and filters one raw reference.
func (e *Extractor) accept(page *dom.Page, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || hasSkipPrefix(raw) {
		return "", false
	}
	u, err := frontier.Resolve(page.Base, raw)
	if err != nil {
		return "", false
	}
	if !e.scope.SameSite(page.URL.String(), u) {
		return "", false
	}
	if e.skipped(u) {
		return "", false
	}
	return u, true
}

func (e *Extractor) skipped(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	if e.skipExt[path.Ext(p)] {
		return true
	}
	for _, prefix := range e.navPrefix {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func hasSkipPrefix(s string) bool {
	l := strings.ToLower(s)
	for _, p := range skipPrefixes {
		if strings.HasPrefix(l, p) {
			return true
		}
	}
	return false
}

func (e *Extractor) inExcludedZone(s *goquery.Selection) bool {
	return s.ParentsFiltered(e.excluded).Length() > 0
}

type addFunc func(raw string, src Source, text string)

func (e *Extractor) anchors(page *dom.Page, add addFunc) {
	page.Doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if e.inExcludedZone(a) {
			return
		}
		add(a.AttrOr("href", ""), SourceAnchor, dom.SpacedText(a))
	})
}

func (e *Extractor) jsNav(page *dom.Page, add addFunc) {
	page.Doc.Find(jsNavSelector).Each(func(_ int, el *goquery.Selection) {
		if e.inExcludedZone(el) {
			return
		}
		if ref := jsNavTarget(el); ref != "" {
			add(ref, SourceJSNav, dom.SpacedText(el))
		}
	})
}

func jsNavTarget(el *goquery.Selection) string {
	if onclick, ok := el.Attr("onclick"); ok {
		if m := onclickURL.FindStringSubmatch(onclick); m != nil {
			return m[1]
		}
		if m := locationAssign.FindStringSubmatch(onclick); m != nil {
			return m[1]
		}
	}
	for _, attr := range dataAttrs {
		if v := strings.TrimSpace(el.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	if href, ok := el.Find("a[href]").First().Attr("href"); ok {
		return href
	}
	return ""
}

func (e *Extractor) scripts(page *dom.Page, add addFunc) {
	page.Doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		body := s.Text()
		if len(body) < minScriptLen {
			return
		}
		for _, ref := range scriptURLs(body) {
			add(ref, SourceScript, "")
		}
	})
}

// scriptURLs collects URL-shaped strings from a script body. App-state blobs
// and bare JSON are repaired and walked first; quoted literals are matched
// afterwards in either case.
func scriptURLs(body string) []string {
	var out []string
	keep := func(s string) {
		s = strings.TrimSpace(s)
		if len(s) < minScriptURLLen {
			return
		}
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "/") {
			out = append(out, s)
		}
	}

	trimmed := strings.TrimSpace(body)
	if appStateMarker.MatchString(body) || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if start := strings.IndexAny(body, "{["); start >= 0 {
			if repaired, err := jsonrepair.JSONRepair(body[start:]); err == nil {
				var data any
				if json.Unmarshal([]byte(repaired), &data) == nil {
					walkStrings(data, keep)
				}
			}
		}
	}

	for _, m := range scriptURL.FindAllStringSubmatch(body, -1) {
		if m[1] != "" {
			keep(m[1])
		} else {
			keep(m[2])
		}
	}
	return out
}

func walkStrings(v any, fn func(string)) {
	switch x := v.(type) {
	case map[string]any:
		for _, child := range x {
			walkStrings(child, fn)
		}
	case []any:
		for _, child := range x {
			walkStrings(child, fn)
		}
	case string:
		fn(x)
	}
}

func (e *Extractor) pagination(page *dom.Page, add addFunc) {
	page.Doc.Find("link[rel][href]").Each(func(_ int, l *goquery.Selection) {
		if strings.Contains(strings.ToLower(l.AttrOr("rel", "")), "next") {
			add(l.AttrOr("href", ""), SourcePagination, "")
		}
	})
	for _, sel := range paginationSelectors {
		page.Doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			add(a.AttrOr("href", ""), SourcePagination, dom.SpacedText(a))
		})
	}
}

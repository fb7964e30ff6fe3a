package article

import (
	"net"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
	"github.com/jonesrussell/north-cloud/harvester/internal/pubdate"
)

// SiteHost is host without port and leading "www.".
func SiteHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// siteLabel is the first DNS label of the site host, used in the
// "[from <site>]" marker.
func siteLabel(host string) string {
	h := SiteHost(host)
	if i := strings.IndexByte(h, '.'); i >= 0 {
		return h[:i]
	}
	return h
}

// FromMarker is the prefix added to content and abstract.
func FromMarker(host string) string {
	return "[from " + siteLabel(host) + "] "
}

func (e *Extractor) finish(page *dom.Page, p Partial, tiers []string) *Article {
	now := e.now()
	host := page.URL.Host
	marker := FromMarker(host)

	title := p.Title
	if !e.cfg.DisableTitleRefinement {
		title = refineTitle(page, title)
	}

	a := &Article{
		Title:          title,
		PublishTime:    pubdate.NormalizeOrToday(p.PublishTime, now),
		PublishTimeRaw: p.PublishTime,
		Content:        marker + p.Content,
		URL:            page.URL.String(),
		Site:           SiteHost(host),
		CrawlTime:      now.UTC(),
		Abstract:       p.Abstract,
		Author:         p.Author,
		Images:         images(page),
		Tiers:          tiers,
	}
	if a.Abstract == "" {
		if desc := page.Meta("description"); desc != "" {
			a.Abstract = marker + desc
		}
	}
	if a.Author == "" {
		a.Author = page.Meta("author")
	}
	return a
}

func images(page *dom.Page) []string {
	seen := map[string]bool{}
	var out []string
	page.Doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		abs := page.Absolute(src)
		if abs != "" && !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	})
	return out
}

func (e *Extractor) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

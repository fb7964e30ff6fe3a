package article

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
	"github.com/jonesrussell/north-cloud/harvester/internal/pubdate"
)

// SiteFunc extracts an article from a known site, bypassing the generic
// tiers entirely.
type SiteFunc func(ctx context.Context, page *dom.Page) (Partial, error)

// SiteSelectors configures a CSS-selector extractor for one domain.
type SiteSelectors struct {
	Domain      string   `mapstructure:"domain" validate:"required"`
	Title       string   `mapstructure:"title"`
	Content     string   `mapstructure:"content"`
	PublishTime string   `mapstructure:"publish_time"`
	Exclude     []string `mapstructure:"exclude"`
}

// Registry maps a host to its site extractor. It is built once and never
// mutated.
type Registry struct {
	sites map[string]SiteFunc
}

// NewRegistry copies fns into a registry. Hosts are matched
// case-insensitively with a leading "www." ignored.
func NewRegistry(fns map[string]SiteFunc) *Registry {
	r := &Registry{sites: make(map[string]SiteFunc, len(fns))}
	for host, fn := range fns {
		if fn != nil {
			r.sites[registryKey(host)] = fn
		}
	}
	return r
}

// NewRegistryFromSelectors builds a registry from selector configs plus any
// code-registered extractors. Code-registered entries win on conflict.
func NewRegistryFromSelectors(selectors []SiteSelectors, fns map[string]SiteFunc) *Registry {
	merged := make(map[string]SiteFunc, len(selectors)+len(fns))
	for _, s := range selectors {
		if strings.TrimSpace(s.Domain) == "" {
			continue
		}
		merged[s.Domain] = SelectorSite(s)
	}
	for host, fn := range fns {
		merged[host] = fn
	}
	return NewRegistry(merged)
}

// Lookup returns the extractor for host, if any.
func (r *Registry) Lookup(host string) (SiteFunc, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.sites[registryKey(host)]
	return fn, ok
}

// Len is the number of registered sites.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.sites)
}

func registryKey(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return strings.TrimPrefix(host, "www.")
}

// SelectorSite turns selector config into a SiteFunc. Exclude selectors are
// removed from the content container before its text is read.
func SelectorSite(s SiteSelectors) SiteFunc {
	return func(_ context.Context, page *dom.Page) (Partial, error) {
		var p Partial
		if s.Title != "" {
			p.Title = dom.SpacedText(page.Doc.Find(s.Title).First())
		}
		if s.PublishTime != "" {
			raw := dom.SpacedText(page.Doc.Find(s.PublishTime).First())
			if found := pubdate.Find(raw); found != "" {
				raw = found
			}
			p.PublishTime = raw
		}
		if s.Content != "" {
			container := page.Doc.Find(s.Content).First().Clone()
			for _, ex := range s.Exclude {
				container.Find(ex).Remove()
			}
			p.Content = contentText(container)
		}
		return p, nil
	}
}

func contentText(s *goquery.Selection) string {
	return strings.TrimSpace(dom.VisibleText(s))
}

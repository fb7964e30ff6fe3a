package article

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
)

// articleTypes are the schema.org types whose headline and dates we trust.
var articleTypes = map[string]bool{
	"newsarticle":      true,
	"article":          true,
	"blogposting":      true,
	"reportage":        true,
	"analysisnews":     true,
	"scholarlyarticle": true,
}

// structuredTier reads JSON-LD, Open Graph and <meta> tags.
type structuredTier struct {
	dateNames []string
}

func (structuredTier) Name() string { return TierStructured }

func (t structuredTier) Extract(_ context.Context, page *dom.Page) (Partial, error) {
	var p Partial

	page.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		for _, obj := range jsonLDObjects(data) {
			if !isArticleType(obj["@type"]) {
				continue
			}
			p.Merge(Partial{
				Title:       stringField(obj, "headline", "name"),
				PublishTime: stringField(obj, "datePublished", "dateCreated"),
				Content:     stringField(obj, "articleBody"),
				Abstract:    stringField(obj, "description"),
				Author:      authorName(obj["author"]),
			})
		}
	})

	p.Merge(Partial{
		Title:       page.Meta("og:title", "ArticleTitle"),
		PublishTime: page.Meta(t.dateNames...),
		Author:      page.Meta("article:author"),
	})
	return p, nil
}

// jsonLDObjects flattens top-level arrays and @graph containers.
func jsonLDObjects(v any) []map[string]any {
	var out []map[string]any
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			out = append(out, jsonLDObjects(item)...)
		}
	case map[string]any:
		out = append(out, x)
		if graph, ok := x["@graph"]; ok {
			out = append(out, jsonLDObjects(graph)...)
		}
	}
	return out
}

func isArticleType(v any) bool {
	switch x := v.(type) {
	case string:
		return articleTypes[strings.ToLower(x)]
	case []any:
		for _, item := range x {
			if isArticleType(item) {
				return true
			}
		}
	}
	return false
}

func stringField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func authorName(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case map[string]any:
		return stringField(x, "name")
	case []any:
		if len(x) > 0 {
			return authorName(x[0])
		}
	}
	return ""
}

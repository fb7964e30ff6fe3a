// Package dom wraps a parsed HTML document together with the URL it was
// served from, and provides the text and metadata helpers shared by the
// classifier, link extractor and article extractor.
package dom

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrNoURL is returned when a page is built without a final URL.
var ErrNoURL = errors.New("dom: page url is required")

// invisibleParents are elements whose text never renders.
var invisibleParents = map[string]bool{
	"script":   true,
	"style":    true,
	"head":     true,
	"title":    true,
	"meta":     true,
	"noscript": true,
	"template": true,
}

// Page is a decoded document. It is not safe for concurrent mutation.
type Page struct {
	// URL is the final URL after redirects.
	URL *url.URL
	// Base is the URL relative links resolve against: <base href> when
	// present, otherwise URL.
	Base *url.URL
	HTML string
	Doc  *goquery.Document

	visible *string
}

// Parse builds a Page from decoded HTML.
func Parse(finalURL, text string) (*Page, error) {
	if strings.TrimSpace(finalURL) == "" {
		return nil, ErrNoURL
	}
	u, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("dom: parse url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("dom: parse html: %w", err)
	}

	p := &Page{URL: u, Base: u, HTML: text, Doc: doc}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := u.Parse(strings.TrimSpace(href)); err == nil && b.Host != "" {
			p.Base = b
		}
	}
	return p, nil
}

// Host returns the lowercased host of the final URL, without port.
func (p *Page) Host() string {
	return strings.ToLower(p.URL.Hostname())
}

// Absolute resolves ref against the page base. Empty or unparsable refs
// yield "".
func (p *Page) Absolute(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := p.Base.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}

// VisibleText returns the page's visible text: one trimmed line per text
// node, blank lines dropped. The result is cached.
func (p *Page) VisibleText() string {
	if p.visible == nil {
		t := VisibleText(p.Doc.Selection)
		p.visible = &t
	}
	return *p.visible
}

// VisibleText joins the visible text nodes under sel with newlines.
func VisibleText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		walkText(n, &b)
	}
	return strings.TrimSpace(b.String())
}

func walkText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.ElementNode:
		if invisibleParents[n.Data] {
			return
		}
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, b)
	}
}

// SpacedText is sel's text with whitespace runs collapsed to one space.
func SpacedText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(VisibleText(sel)), " ")
}

// Meta returns the content of the first <meta> whose property or name
// equals one of keys, compared case-insensitively.
func (p *Page) Meta(keys ...string) string {
	var found string
	for _, key := range keys {
		p.Doc.Find("meta[content]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			for _, attr := range []string{"property", "name", "itemprop", "http-equiv"} {
				if v, ok := s.Attr(attr); ok && strings.EqualFold(strings.TrimSpace(v), key) {
					if c := strings.TrimSpace(s.AttrOr("content", "")); c != "" {
						found = c
						return false
					}
				}
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// Title returns the trimmed <title> text.
func (p *Page) Title() string {
	return strings.TrimSpace(p.Doc.Find("title").First().Text())
}

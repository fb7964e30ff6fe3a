package article

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
	"github.com/jonesrussell/north-cloud/harvester/internal/pubdate"
)

// rulesTier is the DOM heuristic pass: headings for the title, a date
// pattern over visible text, and the best scoring content container.
type rulesTier struct {
	cfg Config
}

func (rulesTier) Name() string { return TierRules }

func (t rulesTier) Extract(_ context.Context, page *dom.Page) (Partial, error) {
	return Partial{
		Title:       firstHeading(page.Doc),
		PublishTime: pubdate.Find(page.VisibleText()),
		Content:     t.bestContainer(page),
	}, nil
}

func firstHeading(doc *goquery.Document) string {
	for _, sel := range []string{"h1", "h2"} {
		var text string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text = dom.SpacedText(s)
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}

// bestContainer scores each candidate container by text length minus a
// penalty per link and falls back to the whole visible text.
func (t rulesTier) bestContainer(page *dom.Page) string {
	var (
		best      string
		bestScore int
		found     bool
	)
	for _, sel := range t.cfg.ContainerSelectors {
		page.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := dom.VisibleText(s)
			n := utf8.RuneCountInString(text)
			if n <= t.cfg.MinContainerChars {
				return
			}
			score := n - t.cfg.LinkPenalty*s.Find("a").Length()
			if !found || score > bestScore {
				best, bestScore, found = text, score, true
			}
		})
	}
	if found {
		return best
	}
	return strings.TrimSpace(page.VisibleText())
}

package article

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
)

// readabilityTier runs the generic extractor on the full document. Its
// metadata block is ignored; only title and body text are kept, and only
// when they do not look like an error page.
type readabilityTier struct {
	cfg Config
}

func (readabilityTier) Name() string { return TierReadability }

func (t readabilityTier) Extract(_ context.Context, page *dom.Page) (Partial, error) {
	doc := strings.TrimSpace(page.HTML)
	if doc == "" {
		return Partial{}, nil
	}

	art, err := readability.FromReader(strings.NewReader(doc), page.URL)
	if err != nil {
		return Partial{}, fmt.Errorf("readability: %w", err)
	}

	title := strings.TrimSpace(art.Title)
	content := strings.TrimSpace(art.TextContent)

	if hasAnyPrefix(title, t.cfg.ErrorTitlePrefixes) || hasAnyPrefix(content, t.cfg.ErrorContentPrefixes) {
		return Partial{}, nil
	}

	var p Partial
	if utf8.RuneCountInString(title) >= t.cfg.MinTitleChars {
		p.Title = title
	}
	if utf8.RuneCountInString(content) >= t.cfg.MinContentChars {
		p.Content = content
	}
	return p, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

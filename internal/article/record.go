package article

import (
	"strings"
	"time"
)

// Tier names, in the order the extractor tries them.
const (
	TierSite        = "site"
	TierStructured  = "structured"
	TierReadability = "readability"
	TierRules       = "rules"
	TierLLM         = "llm"
)

// Required field names.
const (
	FieldTitle       = "title"
	FieldPublishTime = "publish_time"
	FieldContent     = "content"
)

// Article is a fully extracted detail page.
type Article struct {
	Title string `json:"title"`
	// PublishTime is normalized to YYYY-MM-DD.
	PublishTime string `json:"publish_time"`
	// PublishTimeRaw is the string the tiers found, before normalization.
	// It is kept even when it could not be normalized.
	PublishTimeRaw string            `json:"publish_time_raw,omitempty"`
	Content        string            `json:"content"`
	URL            string            `json:"url"`
	Site           string            `json:"site"`
	CrawlTime      time.Time         `json:"crawl_time"`
	Abstract       string            `json:"abstract,omitempty"`
	Author         string            `json:"author,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Category       string            `json:"category,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
	// Tiers lists the tiers that ran, in order.
	Tiers []string `json:"tiers"`
}

// Partial is what one tier contributes. Later tiers only fill fields that
// are still empty.
type Partial struct {
	Title       string
	PublishTime string
	Content     string
	Abstract    string
	Author      string
}

// Merge fills p's empty fields from o.
func (p *Partial) Merge(o Partial) {
	fill(&p.Title, o.Title)
	fill(&p.PublishTime, o.PublishTime)
	fill(&p.Content, o.Content)
	fill(&p.Abstract, o.Abstract)
	fill(&p.Author, o.Author)
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

// Complete reports whether title, publish time and content are all set.
func (p Partial) Complete() bool {
	return len(p.Missing()) == 0
}

// Missing names the required fields that are still empty.
func (p Partial) Missing() []string {
	var out []string
	if p.Title == "" {
		out = append(out, FieldTitle)
	}
	if p.PublishTime == "" {
		out = append(out, FieldPublishTime)
	}
	if p.Content == "" {
		out = append(out, FieldContent)
	}
	return out
}

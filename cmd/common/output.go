package common

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
)

// Output formats accepted by --output.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// previewRunes bounds the content preview column.
const previewRunes = 80

// CheckFormat rejects unknown --output values.
func CheckFormat(format string) error {
	if format != FormatTable && format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// NewTable returns a table writer mirrored to w in the CLI's style.
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// RenderURLs prints a numbered list of URLs.
func RenderURLs(w io.Writer, title string, urls []string) {
	t := NewTable(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", "URL"})
	for i, u := range urls {
		t.AppendRow(table.Row{i + 1, u})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d urls", len(urls))})
	t.Render()
}

// RenderMetrics prints the counters of one crawl.
func RenderMetrics(w io.Writer, s metrics.Snapshot) {
	t := NewTable(w)
	t.SetTitle("Crawl metrics")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Duration", s.Duration.Round(time.Millisecond).String()},
		{"Pages visited", s.PagesVisited},
		{"Fetch failures", s.FetchFailures},
		{"Degraded decodes", s.DecodeDegraded},
		{"Robots skipped", s.RobotsSkipped},
		{"Listings", s.Listings},
		{"Details", s.Details},
		{"Unknown", s.Unknown},
		{"Articles", s.Articles},
		{"Model calls", s.LLMCalls},
	})
	for _, reason := range slices.Sorted(maps.Keys(s.Failures)) {
		t.AppendRow(table.Row{"Failed: " + reason, s.Failures[reason]})
	}
	for _, tier := range slices.Sorted(maps.Keys(s.TierHits)) {
		t.AppendRow(table.Row{"Tier: " + tier, s.TierHits[tier]})
	}
	t.Render()
}

// Preview shortens s for a table cell.
func Preview(s string) string {
	return text.Trim(strings.Join(strings.Fields(s), " "), previewRunes)
}

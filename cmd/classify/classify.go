// Package classify implements the classify command, which prints how a page
// is decoded and classified without extracting it.
package classify

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/harvester/cmd/common"
	"github.com/jonesrussell/north-cloud/harvester/internal/classifier"
	"github.com/jonesrussell/north-cloud/harvester/internal/decoder"
	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
)

// Report is what classify prints.
type Report struct {
	URL          string            `json:"url"`
	FinalURL     string            `json:"final_url"`
	StatusCode   int               `json:"status_code"`
	Charset      string            `json:"charset"`
	Source       decoder.Source    `json:"charset_source"`
	Degraded     bool              `json:"degraded"`
	Result       classifier.Result `json:"result"`
	ListLike     bool              `json:"list_like"`
	SectionLinks []string          `json:"section_links"`
}

// Command returns the classify command.
func Command() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "classify <url>",
		Short: "Fetch, decode and classify one page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := common.CheckFormat(output); err != nil {
				return err
			}
			deps, err := common.NewDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			report, err := run(cmd.Context(), deps, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == common.FormatJSON {
				return common.WriteJSON(out, report)
			}
			Render(out, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", common.FormatTable, "output format: table or json")
	return cmd
}

func run(ctx context.Context, deps *common.Deps, rawURL string) (*Report, error) {
	fp, err := deps.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	dec, err := deps.Decoder.Decode(fp.Body, fp.Header)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	page, err := dom.Parse(fp.FinalURL, dec.Text)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	return &Report{
		URL:          rawURL,
		FinalURL:     fp.FinalURL,
		StatusCode:   fp.StatusCode,
		Charset:      dec.Charset,
		Source:       dec.Source,
		Degraded:     dec.Degraded,
		Result:       deps.Classifier.Classify(page),
		ListLike:     deps.Classifier.IsListLike(page),
		SectionLinks: deps.Links.SectionLinks(page, fp.FinalURL),
	}, nil
}

// Render prints a Report as tables.
func Render(w io.Writer, r *Report) {
	t := common.NewTable(w)
	t.SetTitle("Classification")
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"URL", r.FinalURL},
		{"Status", r.StatusCode},
		{"Charset", fmt.Sprintf("%s (%s)", r.Charset, r.Source)},
		{"Degraded", r.Degraded},
		{"Kind", r.Result.Kind},
		{"Detail path", r.Result.Signals.DetailPath},
		{"List hint", r.Result.Signals.ListHint},
		{"Dates", r.Result.Signals.DateCount},
		{"News links", r.Result.Signals.NewsLinks},
		{"List like", r.ListLike},
		{"Section links", len(r.SectionLinks)},
	})
	t.Render()
}

// Package probe implements the probe command: one URL through the page
// pipeline, printed as listing links or an article record.
package probe

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/harvester/cmd/common"
	"github.com/jonesrussell/north-cloud/harvester/internal/article"
	"github.com/jonesrussell/north-cloud/harvester/internal/crawler"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
)

type options struct {
	category   string
	abstract   string
	extra      map[string]string
	withinDays int
	smart      bool
	output     string
}

// Command returns the probe command.
func Command() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Classify one URL and extract its article or listing links",
		Long: `Fetch a single URL, classify it and either return the in-section links of a
listing page or extract the article of a detail page. With --smart a listing
entry is walked breadth first and the detail URLs found are returned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := common.CheckFormat(opts.output); err != nil {
				return err
			}
			deps, err := common.NewDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			probeOpts := crawler.ProbeOptions{
				Category:   opts.category,
				Abstract:   opts.abstract,
				Extra:      opts.extra,
				WithinDays: opts.withinDays,
			}

			var res crawler.Result
			if opts.smart {
				res = deps.Crawler.SmartCrawl(cmd.Context(), args[0], probeOpts)
			} else {
				res = deps.Crawler.Probe(cmd.Context(), args[0], probeOpts)
			}
			deps.Logger.Info("Probe finished",
				logger.URL(res.URL),
				logger.String("status", string(res.Status)),
				logger.Int("code", res.Code()),
			)

			out := cmd.OutOrStdout()
			if opts.output == common.FormatJSON {
				return common.WriteJSON(out, res)
			}
			Render(out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "category stored on the article")
	cmd.Flags().StringVar(&opts.abstract, "abstract", "", "abstract replacing the extracted one")
	cmd.Flags().StringToStringVar(&opts.extra, "extra", nil, "extra key=value fields stored on the article")
	cmd.Flags().IntVar(&opts.withinDays, "within-days", 0, "drop articles older than this many days")
	cmd.Flags().BoolVar(&opts.smart, "smart", false, "walk listing entries and return their detail URLs")
	cmd.Flags().StringVarP(&opts.output, "output", "o", common.FormatTable, "output format: table or json")

	return cmd
}

// Render prints a Result as tables.
func Render(w io.Writer, res crawler.Result) {
	switch res.Status {
	case crawler.StatusListing:
		common.RenderURLs(w, fmt.Sprintf("Listing %s", res.URL), res.URLs)
	case crawler.StatusArticle:
		RenderArticle(w, res.Article)
	default:
		t := common.NewTable(w)
		t.AppendHeader(table.Row{"Status", "Reason", "Code", "URL"})
		t.AppendRow(table.Row{res.Status, res.Reason, res.Code(), res.URL})
		t.Render()
	}
}

// RenderArticle prints one article record.
func RenderArticle(w io.Writer, a *article.Article) {
	t := common.NewTable(w)
	t.SetTitle("Article")
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Title", a.Title},
		{"Published", a.PublishTime},
		{"URL", a.URL},
		{"Site", a.Site},
		{"Author", a.Author},
		{"Category", a.Category},
		{"Abstract", common.Preview(a.Abstract)},
		{"Content", common.Preview(a.Content)},
		{"Images", len(a.Images)},
		{"Tiers", strings.Join(a.Tiers, ", ")},
	})
	t.Render()
}

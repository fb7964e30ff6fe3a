// Package crawl implements the crawl command for walking one section of a site.
package crawl

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/harvester/cmd/common"
	"github.com/jonesrussell/north-cloud/harvester/internal/crawler"
)

type options struct {
	maxDepth int
	maxPages int
	articles bool
	output   string
}

// Command returns the crawl command.
func Command() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "crawl <entry-url>",
		Short: "Walk a site section breadth first",
		Long: `Walk the section rooted at the entry URL breadth first, following only
same-site links inside the section. Detail pages are collected and, with
--articles, extracted.`,
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

			var res *crawler.SectionResult
			if opts.articles {
				res = deps.Crawler.CrawlSection(cmd.Context(), args[0], opts.maxDepth, opts.maxPages)
			} else {
				res = deps.Crawler.CollectDetailURLs(cmd.Context(), args[0], opts.maxDepth, opts.maxPages)
			}

			out := cmd.OutOrStdout()
			if opts.output == common.FormatJSON {
				return common.WriteJSON(out, res)
			}
			Render(out, res)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", -1, "maximum link depth from the entry (default from config)")
	cmd.Flags().IntVar(&opts.maxPages, "max-pages", 0, "maximum pages to fetch (default from config)")
	cmd.Flags().BoolVar(&opts.articles, "articles", false, "extract every detail page found")
	cmd.Flags().StringVarP(&opts.output, "output", "o", common.FormatTable, "output format: table or json")

	return cmd
}

// Render prints a section walk as tables.
func Render(w io.Writer, res *crawler.SectionResult) {
	if len(res.Articles) > 0 {
		t := common.NewTable(w)
		t.SetTitle(fmt.Sprintf("Articles under %s", res.Base))
		t.AppendHeader(table.Row{"#", "Published", "Title", "URL", "Tiers"})
		for i, a := range res.Articles {
			t.AppendRow(table.Row{i + 1, a.PublishTime, common.Preview(a.Title), a.URL, strings.Join(a.Tiers, ",")})
		}
		t.Render()
	} else {
		common.RenderURLs(w, fmt.Sprintf("Detail pages under %s", res.Base), res.DetailURLs)
	}
	common.RenderMetrics(w, res.Metrics)
}

package crawler_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/jonesrussell/north-cloud/harvester/internal/article"
	"github.com/jonesrussell/north-cloud/harvester/internal/classifier"
	"github.com/jonesrussell/north-cloud/harvester/internal/crawler"
	"github.com/jonesrussell/north-cloud/harvester/internal/decoder"
	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
	"github.com/jonesrussell/north-cloud/harvester/internal/fetcher"
	"github.com/jonesrussell/north-cloud/harvester/internal/frontier"
	"github.com/jonesrussell/north-cloud/harvester/internal/links"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
	"github.com/jonesrussell/north-cloud/harvester/internal/retry"
	"github.com/jonesrussell/north-cloud/harvester/testutils"
)

const sectionID = "de3fe4ea-1c2b-4d5e-9a7f-0b1c2d3e4f50"

var entryPath = "/columns/" + sectionID + "/index.html"

func detailPath(i int) string {
	return fmt.Sprintf("/columns/%s/202505/%02d/%08x-aaaa.html", sectionID, i, i)
}

func otherPath(i int) string {
	return fmt.Sprintf("/other-section/2025/notice-%d.html", i)
}

func detailHTML(title, date string) string {
	return `<html><head><meta charset="utf-8"><title>` + title + `</title>
<script type="application/ld+json">
{"@type": "NewsArticle", "headline": "` + title + `", "datePublished": "` + date + `",
 "articleBody": "各有关单位：现将有关事项通知如下，请结合工作实际认真抓好落实，确保各项任务按期完成。"}
</script></head><body><h1>` + title + `</h1><div class="content"><p>正文</p></div></body></html>`
}

// listingHTML links paths from inside a listing block.
func listingHTML(paths ...string) string {
	var b strings.Builder
	b.WriteString(`<html><head><meta charset="utf-8"><title>通知公告</title></head><body>`)
	b.WriteString(`<nav><a href="/">首页</a></nav><ul class="list">`)
	for i, p := range paths {
		fmt.Fprintf(&b, `<li><a href="%s">关于第%d项工作的通知</a> <span>2025-05-%02d</span></li>`, p, i+1, i%28+1)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// sectionSite serves an entry listing with ten in-section detail links and
// five links into another section.
func sectionSite(t *testing.T) *testutils.Site {
	t.Helper()

	pages := map[string]any{}
	var linked []string
	for i := 1; i <= 10; i++ {
		pages[detailPath(i)] = detailHTML(fmt.Sprintf("关于开展第%d批专项检查工作的通知", i), "2025-05-30")
		linked = append(linked, detailPath(i))
	}
	for i := 1; i <= 5; i++ {
		pages[otherPath(i)] = detailHTML(fmt.Sprintf("其他栏目第%d条消息", i), "2025-05-30")
		linked = append(linked, otherPath(i))
	}
	pages[entryPath] = listingHTML(linked...)
	return testutils.NewSite(t, pages)
}

type stack struct {
	cfg      crawler.Config
	robots   crawler.RobotsGate
	articles *article.Extractor
}

type stackOption func(*stack)

func withConfig(cfg crawler.Config) stackOption {
	return func(s *stack) { s.cfg = cfg }
}

func withRobots(r crawler.RobotsGate) stackOption {
	return func(s *stack) { s.robots = r }
}

func withArticles(e *article.Extractor) stackOption {
	return func(s *stack) { s.articles = e }
}

// newCrawler wires the real pipeline with retries disabled.
func newCrawler(t *testing.T, opts ...stackOption) *crawler.Crawler {
	t.Helper()

	nop := logger.NewNop()
	s := &stack{articles: article.New(article.Config{}, nop)}
	for _, opt := range opts {
		opt(s)
	}

	scope := frontier.NewScope()
	le := links.New(links.Config{}, scope, nop)

	c, err := crawler.New(crawler.Params{
		Config: s.cfg,
		Fetcher: fetcher.New(fetcher.Config{}, nop, fetcher.WithRetry(retry.Config{
			IsRetryable: retry.DefaultIsRetryable,
			Wait:        func(context.Context, time.Duration) error { return nil },
		})),
		Decoder:    decoder.New(nop),
		Classifier: classifier.New(classifier.DefaultRules(), le),
		Links:      le,
		Scope:      scope,
		Articles:   s.articles,
		Robots:     s.robots,
		Logger:     nop,
	})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := crawler.New(crawler.Params{})
	require.Error(t, err)
}

func TestCrawlSection_StaysInsideSection(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	c := newCrawler(t)

	res := c.CrawlSection(context.Background(), site.URLFor(entryPath), 3, 100)

	assert.Equal(t, 11, res.Visited)
	assert.Len(t, res.Articles, 10)
	assert.Len(t, res.DetailURLs, 10)
	for i := 1; i <= 5; i++ {
		assert.Zero(t, site.Hits(otherPath(i)), "out-of-section page %d fetched", i)
	}
	for _, a := range res.Articles {
		assert.Equal(t, "2025-05-30", a.PublishTime)
		assert.True(t, strings.HasPrefix(a.Content, "[from 127] "), a.Content)
	}
	assert.NotEmpty(t, res.CrawlID)
	assert.Equal(t, int64(11), res.Metrics.PagesVisited)
	assert.Equal(t, int64(10), res.Metrics.Articles)
}

func TestCrawlSection_MaxPagesBoundsFetches(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	c := newCrawler(t)

	res := c.CrawlSection(context.Background(), site.URLFor(entryPath), 3, 3)

	assert.Equal(t, 3, res.Visited)
	assert.Equal(t, 3, site.TotalHits())
	assert.Len(t, res.Articles, 2)
}

func TestCrawlSection_ZeroDepthVisitsEntryOnly(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	c := newCrawler(t)

	res := c.CrawlSection(context.Background(), site.URLFor(entryPath), 0, 100)

	assert.Equal(t, 1, res.Visited)
	assert.Equal(t, 1, site.TotalHits())
	assert.Empty(t, res.Articles)
}

func TestCrawlSection_ConfiguredZeroDepthVisitsEntryOnly(t *testing.T) {
	t.Parallel()

	depth := 0
	site := sectionSite(t)
	c := newCrawler(t, withConfig(crawler.Config{MaxDepth: &depth}))

	res := c.CrawlSection(context.Background(), site.URLFor(entryPath), -1, 100)

	assert.Equal(t, 0, c.Config().Depth())
	assert.Equal(t, 1, res.Visited)
	assert.Equal(t, 1, site.TotalHits())
}

func TestCrawlSection_DepthBound(t *testing.T) {
	t.Parallel()

	site := testutils.NewSite(t, map[string]any{
		"/news/index.html":          listingHTML("/news/l1/index.html"),
		"/news/l1/index.html":       listingHTML("/news/l1/l2/index.html"),
		"/news/l1/l2/index.html":    listingHTML("/news/l1/l2/l3/index.html"),
		"/news/l1/l2/l3/index.html": listingHTML(),
	})
	c := newCrawler(t)

	res := c.CrawlSection(context.Background(), site.URLFor("/news/index.html"), 2, 100)

	assert.Equal(t, 3, res.Visited)
	assert.Equal(t, 1, site.Hits("/news/l1/l2/index.html"))
	assert.Zero(t, site.Hits("/news/l1/l2/l3/index.html"))
}

func TestCrawlSection_FetchFailureIsSkipped(t *testing.T) {
	t.Parallel()

	site := testutils.NewSite(t, map[string]any{
		entryPath:     listingHTML(detailPath(1), detailPath(2)),
		detailPath(1): detailHTML("关于开展安全生产大检查的通知", "2025-05-30"),
	})
	c := newCrawler(t)

	res := c.CrawlSection(context.Background(), site.URLFor(entryPath), 3, 100)

	assert.Equal(t, 3, res.Visited)
	assert.Len(t, res.Articles, 1)
	assert.Equal(t, int64(1), res.Metrics.FetchFailures)
	assert.Equal(t, int64(1), res.Metrics.Failures[string(crawler.ReasonNetwork)])
}

func TestCrawlSection_RebasesOnEntryRedirect(t *testing.T) {
	t.Parallel()

	pages := map[string]any{"/old/index.html": testutils.Page{Redirect: entryPath}}
	var linked []string
	for i := 1; i <= 3; i++ {
		pages[detailPath(i)] = detailHTML(fmt.Sprintf("关于开展第%d批专项检查工作的通知", i), "2025-05-30")
		linked = append(linked, detailPath(i))
	}
	pages[entryPath] = listingHTML(linked...)
	redirecting := testutils.NewSite(t, pages)
	c := newCrawler(t)

	res := c.CrawlSection(context.Background(), redirecting.URLFor("/old/index.html"), 3, 100)

	assert.Equal(t, redirecting.URLFor(entryPath), res.Base)
	assert.Len(t, res.Articles, 3)
	assert.Equal(t, 1, redirecting.Hits(entryPath))
}

func TestCrawlSection_RespectsRobots(t *testing.T) {
	t.Parallel()

	pages := map[string]any{
		"/robots.txt": testutils.Page{
			HTML:        "User-agent: *\nDisallow: " + detailPath(1) + "\n",
			ContentType: "text/plain",
		},
		entryPath: listingHTML(detailPath(1), detailPath(2)),
	}
	pages[detailPath(1)] = detailHTML("关于开展第一批专项检查工作的通知", "2025-05-30")
	pages[detailPath(2)] = detailHTML("关于开展第二批专项检查工作的通知", "2025-05-30")
	site := testutils.NewSite(t, pages)

	robots := fetcher.NewRobotsChecker(site.Client(), "harvester-test", time.Hour)
	c := newCrawler(t, withConfig(crawler.Config{RespectRobots: true}), withRobots(robots))

	res := c.CrawlSection(context.Background(), site.URLFor(entryPath), 3, 100)

	assert.Equal(t, 2, res.Visited, "robots-skipped URLs do not count as visits")
	assert.Zero(t, site.Hits(detailPath(1)))
	assert.Len(t, res.Articles, 1)
	assert.Equal(t, int64(1), res.Metrics.RobotsSkipped)
}

func TestCrawlSection_StopsWhenCancelled(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	c := newCrawler(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.CrawlSection(ctx, site.URLFor(entryPath), 3, 100)
	assert.Zero(t, res.Visited)
	assert.Zero(t, site.TotalHits())
}

func TestCollectDetailURLs_DoesNotExtract(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	c := newCrawler(t)

	res := c.CollectDetailURLs(context.Background(), site.URLFor(entryPath), 3, 100)

	assert.Len(t, res.DetailURLs, 10)
	assert.Empty(t, res.Articles)
	assert.Contains(t, res.DetailURLs, site.URLFor(detailPath(7)))
}

func TestProbe_ListingReturnsSectionLinks(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	c := newCrawler(t)

	res := c.Probe(context.Background(), site.URLFor(entryPath), crawler.ProbeOptions{})

	require.Equal(t, crawler.StatusListing, res.Status)
	assert.Equal(t, classifier.Listing, res.Kind)
	assert.Len(t, res.URLs, 10)
	for _, u := range res.URLs {
		assert.Contains(t, u, "/columns/"+sectionID+"/")
	}
	assert.Equal(t, 1, res.Code())
}

func TestProbe_DetailReturnsArticle(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	c := newCrawler(t)

	res := c.Probe(context.Background(), site.URLFor(detailPath(4)), crawler.ProbeOptions{
		Category: "notice",
		Abstract: "摘要",
		Extra:    map[string]string{"source": "fixture"},
	})

	require.Equal(t, crawler.StatusArticle, res.Status)
	require.NotNil(t, res.Article)
	assert.Equal(t, classifier.Detail, res.Kind)
	assert.Equal(t, "关于开展第4批专项检查工作的通知", res.Article.Title)
	assert.Equal(t, "notice", res.Article.Category)
	assert.Equal(t, "摘要", res.Article.Abstract)
	assert.Equal(t, "fixture", res.Article.Extra["source"])
	assert.Equal(t, 11, res.Code())
	assert.True(t, res.OK())
}

func TestProbe_NetworkFailures(t *testing.T) {
	t.Parallel()

	site := testutils.NewSite(t, map[string]any{
		"/broken.html": testutils.Page{Status: 500, HTML: "oops"},
		"/empty.html":  testutils.Page{Body: []byte{}},
		"/error.html":  `<html><body><p>您访问的页面不存在或已被删除</p></body></html>`,
	})
	c := newCrawler(t)

	for _, path := range []string{"/missing.html", "/broken.html", "/empty.html", "/error.html"} {
		res := c.Probe(context.Background(), site.URLFor(path), crawler.ProbeOptions{})
		assert.Equal(t, crawler.StatusNetworkError, res.Status, path)
		assert.Equal(t, -7, res.Code(), path)
		assert.False(t, res.OK(), path)
	}
}

func TestProbe_IncompleteArticleIsParseError(t *testing.T) {
	t.Parallel()

	site := testutils.NewSite(t, map[string]any{
		"/about/us.html": `<html><body><p>联系我们</p></body></html>`,
	})
	m := metrics.New()
	c := newCrawler(t)

	res := c.Probe(context.Background(), site.URLFor("/about/us.html"), crawler.ProbeOptions{Metrics: m})

	assert.Equal(t, crawler.StatusParseError, res.Status)
	assert.Equal(t, crawler.ReasonIncomplete, res.Reason)
	assert.Zero(t, res.Code())
	assert.Equal(t, int64(1), m.Snapshot().Failures[string(crawler.ReasonIncomplete)])
}

func TestProbe_WithinDaysDropsOldArticles(t *testing.T) {
	t.Parallel()

	site := testutils.NewSite(t, map[string]any{
		detailPath(1): detailHTML("关于开展二零二零年专项检查的通知", "2020-01-02"),
	})
	c := newCrawler(t)

	res := c.Probe(context.Background(), site.URLFor(detailPath(1)), crawler.ProbeOptions{WithinDays: 30})
	assert.Equal(t, crawler.StatusParseError, res.Status)
	assert.Equal(t, crawler.ReasonStale, res.Reason)

	res = c.Probe(context.Background(), site.URLFor(detailPath(1)), crawler.ProbeOptions{})
	assert.Equal(t, crawler.StatusArticle, res.Status)
}

func TestProbe_LooseModeFallsBackToNewsLinks(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString(`<html><body><div class="main">`)
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, `<p><a href="/b/%d/x.html">通知%d</a></p>`, i, i)
	}
	b.WriteString(`</div></body></html>`)
	site := testutils.NewSite(t, map[string]any{"/a/index.html": b.String()})

	strict := newCrawler(t)
	res := strict.Probe(context.Background(), site.URLFor("/a/index.html"), crawler.ProbeOptions{})
	assert.Equal(t, crawler.StatusParseError, res.Status)

	loose := newCrawler(t, withConfig(crawler.Config{Mode: classifier.ModeLoose}))
	res = loose.Probe(context.Background(), site.URLFor("/a/index.html"), crawler.ProbeOptions{})
	require.Equal(t, crawler.StatusListing, res.Status)
	assert.Len(t, res.URLs, 4)
}

func TestProbe_DecodesGBKPage(t *testing.T) {
	t.Parallel()

	title := "关于做好汛期安全防范工作的通知"
	raw, err := simplifiedchinese.GBK.NewEncoder().String(
		strings.Replace(detailHTML(title, "2025-05-30"), `charset="utf-8"`, `charset="gbk"`, 1))
	require.NoError(t, err)

	site := testutils.NewSite(t, map[string]any{
		detailPath(1): testutils.Page{Body: []byte(raw), ContentType: "text/html"},
	})
	c := newCrawler(t)

	res := c.Probe(context.Background(), site.URLFor(detailPath(1)), crawler.ProbeOptions{})
	require.Equal(t, crawler.StatusArticle, res.Status)
	assert.Equal(t, title, res.Article.Title)
}

// overrideExtractor registers a site extractor for the fixture host that
// counts its calls.
func overrideExtractor(calls *atomic.Int32) *article.Extractor {
	registry := article.NewRegistry(map[string]article.SiteFunc{
		"127.0.0.1": func(_ context.Context, page *dom.Page) (article.Partial, error) {
			calls.Add(1)
			return article.Partial{
				Title:       "站点栏目汇总",
				PublishTime: "2025-05-30",
				Content:     dom.SpacedText(page.Doc.Find("ul.list")),
			}, nil
		},
	})
	return article.New(article.Config{}, logger.NewNop(), article.WithRegistry(registry))
}

func TestProbe_SiteOverrideSkipsClassification(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	var calls atomic.Int32
	c := newCrawler(t, withArticles(overrideExtractor(&calls)))

	res := c.Probe(context.Background(), site.URLFor(entryPath), crawler.ProbeOptions{})

	require.Equal(t, crawler.StatusArticle, res.Status)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, res.URLs)
	assert.Equal(t, []string{article.TierSite}, res.Article.Tiers)
	assert.Equal(t, "站点栏目汇总", res.Article.Title)
}

func TestSmartCrawl_SiteOverrideDoesNotWalk(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	var calls atomic.Int32
	c := newCrawler(t, withArticles(overrideExtractor(&calls)))

	res := c.SmartCrawl(context.Background(), site.URLFor(entryPath), crawler.ProbeOptions{})

	require.Equal(t, crawler.StatusArticle, res.Status)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, site.TotalHits())
}

func TestSmartCrawl_DetailEntryIsExtracted(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	c := newCrawler(t)

	res := c.SmartCrawl(context.Background(), site.URLFor(detailPath(2)), crawler.ProbeOptions{})
	require.Equal(t, crawler.StatusArticle, res.Status)
	assert.Equal(t, 1, site.TotalHits())
}

func TestSmartCrawl_ListingEntryCollectsDetailURLs(t *testing.T) {
	t.Parallel()

	site := sectionSite(t)
	c := newCrawler(t)

	res := c.SmartCrawl(context.Background(), site.URLFor(entryPath), crawler.ProbeOptions{})

	require.Equal(t, crawler.StatusListing, res.Status)
	assert.Len(t, res.URLs, 10)
	assert.Equal(t, 1, site.Hits(entryPath), "entry page is fetched once")
}

func TestResult_Code(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status crawler.Status
		want   int
	}{
		{crawler.StatusNetworkError, -7},
		{crawler.StatusParseError, 0},
		{crawler.StatusListing, 1},
		{crawler.StatusArticle, 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, crawler.Result{Status: tt.status}.Code(), tt.status)
	}
}

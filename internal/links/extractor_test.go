package links_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
	"github.com/jonesrussell/north-cloud/harvester/internal/frontier"
	"github.com/jonesrussell/north-cloud/harvester/internal/links"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
)

const columnID = "de3fe4ea-1c2b-4d5e"

func mustPage(t *testing.T, rawURL, html string) *dom.Page {
	t.Helper()
	p, err := dom.Parse(rawURL, html)
	require.NoError(t, err)
	return p
}

func newExtractor(cfg links.Config) *links.Extractor {
	return links.New(cfg, frontier.NewScope(), logger.NewNop())
}

func urlsOf(cands []links.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.URL)
	}
	return out
}

func TestExtract_AnchorsSkipExcludedZonesAndSchemes(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<header><a href="/news/header.html">header</a></header>
<nav><ul><li><a href="/news/nav.html">nav</a></li></ul></nav>
<div class="breadcrumb"><a href="/news/crumb.html">crumb</a></div>
<div class="main">
  <a href="/news/a.html#top">A</a>
  <a href="b.html?utm_source=feed">B</a>
  <a href="javascript:void(0)">js</a>
  <a href="mailto:x@example.com">mail</a>
  <a href="#section">frag</a>
  <a href="https://elsewhere.org/news/c.html">offsite</a>
  <a href="/files/report.pdf">pdf</a>
  <a href="/search?q=x">search</a>
</div>
<footer><a href="/news/footer.html">footer</a></footer>
</body></html>`

	page := mustPage(t, "https://www.example.com/news/index.html", html)
	got := urlsOf(newExtractor(links.Config{}).Extract(page))

	assert.Equal(t, []string{
		"https://www.example.com/news/a.html",
		"https://www.example.com/news/b.html",
	}, got)
}

func TestExtract_JSNavigationAttributes(t *testing.T) {
	t.Parallel()

	html := `<html><body><ul class="items">
<li onclick="window.open('/news/2025/open.html')">open</li>
<li onclick="location.href='/news/2025/assign.html'">assign</li>
<div data-href="/news/2025/data-href.html">data</div>
<span data-url="https://www.example.com/news/2025/data-url.html">data-url</span>
<div role="link"><a href="/news/2025/inner.html">inner</a></div>
<div class="menu"><span data-href="/news/2025/menu.html">menu</span></div>
</ul></body></html>`

	page := mustPage(t, "https://www.example.com/news/", html)
	ex := newExtractor(links.Config{Sources: &links.Sources{JSNav: true}})
	got := urlsOf(ex.Extract(page))

	assert.ElementsMatch(t, []string{
		"https://www.example.com/news/2025/open.html",
		"https://www.example.com/news/2025/assign.html",
		"https://www.example.com/news/2025/data-href.html",
		"https://www.example.com/news/2025/data-url.html",
		"https://www.example.com/news/2025/inner.html",
	}, got)
}

func TestExtract_InlineScripts(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<script>window.__INITIAL_STATE__ = {"list":[{"url":"/news/2025/state-1.html"},{"link":"https://www.example.com/news/2025/state-2.html"}],"page":1,};</script>
<script>var items = ['/news/2025/literal.html', "/x", "not a url"];</script>
<script src="/static/app.js"></script>
</head><body></body></html>`

	page := mustPage(t, "https://www.example.com/news/", html)
	ex := newExtractor(links.Config{Sources: &links.Sources{Scripts: true}})
	got := urlsOf(ex.Extract(page))

	assert.ElementsMatch(t, []string{
		"https://www.example.com/news/2025/state-1.html",
		"https://www.example.com/news/2025/state-2.html",
		"https://www.example.com/news/2025/literal.html",
	}, got)
}

func TestExtract_PaginationIgnoresExclusionZones(t *testing.T) {
	t.Parallel()

	html := `<html><head><link rel="next" href="/news/index_2.html"></head><body>
<div class="pagination"><a href="/news/index_3.html">3</a><a href="/news/index_4.html">4</a></div>
</body></html>`

	page := mustPage(t, "https://www.example.com/news/index.html", html)

	onlyAnchors := newExtractor(links.Config{Sources: &links.Sources{Anchors: true}})
	assert.Empty(t, onlyAnchors.Extract(page))

	onlyPager := newExtractor(links.Config{Sources: &links.Sources{Pagination: true}})
	cands := onlyPager.Extract(page)
	assert.Equal(t, []string{
		"https://www.example.com/news/index_2.html",
		"https://www.example.com/news/index_3.html",
		"https://www.example.com/news/index_4.html",
	}, urlsOf(cands))
	for _, c := range cands {
		assert.Equal(t, links.SourcePagination, c.Source)
	}
}

func TestSectionLinks_ColumnScenario(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString(`<html><body><ul class="news-list">`)
	for i := range 10 {
		fmt.Fprintf(&b, `<li><a href="/columns/%s/202505/%02d/%08x-aaaa.html">in %d</a></li>`, columnID, i+1, i, i)
	}
	for i := range 5 {
		fmt.Fprintf(&b, `<li><a href="/other-section/202505/%02d/b%d.html">out %d</a></li>`, i+1, i, i)
	}
	b.WriteString(`</ul></body></html>`)

	entry := "https://www.example.gov.cn/columns/" + columnID + "/index.html"
	page := mustPage(t, entry, b.String())

	got := newExtractor(links.Config{}).SectionLinks(page, entry)
	require.Len(t, got, 10)
	for _, u := range got {
		assert.Contains(t, u, "/columns/"+columnID+"/")
	}
}

func TestSectionLinks_ExcludesSelf(t *testing.T) {
	t.Parallel()

	html := `<html><body><a href="/news/">self</a><a href="/news/a.html">a</a></body></html>`
	page := mustPage(t, "https://example.com/news/", html)

	got := newExtractor(links.Config{}).SectionLinks(page, "https://example.com/news/")
	assert.Equal(t, []string{"https://example.com/news/a.html"}, got)
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	html := `<html><body><a href="/n/3.html">3</a><a href="/n/1.html">1</a><a href="/n/2.html">2</a></body></html>`
	page := mustPage(t, "https://example.com/", html)
	ex := newExtractor(links.Config{})

	first := urlsOf(ex.Extract(page))
	for range 5 {
		assert.Equal(t, first, urlsOf(ex.Extract(page)))
	}
}

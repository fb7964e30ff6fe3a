package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
)

const samplePage = `<html><head><title> 示例 | Site </title>
<meta property="og:site_name" content="Example Site">
<meta name="Description" content=" summary ">
<base href="https://cdn.example.com/root/">
<style>.x{}</style><script>var a = "hidden";</script></head>
<body><h1>Headline</h1><!-- comment --><p>First  line</p>
<noscript>no js</noscript><div>Second <b>line</b></div></body></html>`

func TestParse_VisibleTextSkipsInvisible(t *testing.T) {
	t.Parallel()

	p, err := dom.Parse("https://example.com/a/b.html", samplePage)
	require.NoError(t, err)

	assert.Equal(t, "Headline\nFirst  line\nSecond\nline", p.VisibleText())
	assert.Equal(t, "Headline First line Second line", dom.SpacedText(p.Doc.Find("body")))
}

func TestPage_MetaAndTitle(t *testing.T) {
	t.Parallel()

	p, err := dom.Parse("https://example.com/", samplePage)
	require.NoError(t, err)

	assert.Equal(t, "Example Site", p.Meta("og:site_name"))
	assert.Equal(t, "summary", p.Meta("description"))
	assert.Equal(t, "", p.Meta("author"))
	assert.Equal(t, "示例 | Site", p.Title())
}

func TestPage_AbsoluteUsesBaseHref(t *testing.T) {
	t.Parallel()

	p, err := dom.Parse("https://example.com/a/b.html", samplePage)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/root/img/1.png", p.Absolute("img/1.png"))
	assert.Equal(t, "", p.Absolute("  "))
	assert.Equal(t, "example.com", p.Host())
}

func TestParse_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := dom.Parse("", "<html></html>")
	require.ErrorIs(t, err, dom.ErrNoURL)
}

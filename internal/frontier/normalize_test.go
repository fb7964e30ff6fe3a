package frontier_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/harvester/internal/frontier"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "strips fragment",
			input: "https://example.com/news/a.html#comments",
			want:  "https://example.com/news/a.html",
		},
		{
			name:  "strips tracking params and sorts the rest",
			input: "https://example.com/list?utm_source=x&page=2&spm=a.b&from=timeline&cat=1",
			want:  "https://example.com/list?cat=1&page=2",
		},
		{
			name:  "keeps pairs the query parser rejects",
			input: "https://example.com/list?c=2&a;b=1&utm_term=t",
			want:  "https://example.com/list?a;b=1&c=2",
		},
		{
			name:  "keeps malformed escapes",
			input: "https://example.com/search?q=%zz&spm=1",
			want:  "https://example.com/search?q=%zz",
		},
		{
			name:  "collapses duplicate slashes",
			input: "https://example.com//news///2024//a.html",
			want:  "https://example.com/news/2024/a.html",
		},
		{
			name:  "lowercases host and drops default port",
			input: "HTTP://WWW.Example.COM:80/News/",
			want:  "http://www.example.com/News/",
		},
		{
			name:  "keeps trailing slash",
			input: "https://example.com/news/",
			want:  "https://example.com/news/",
		},
		{
			name:  "resolves dot segments",
			input: "https://example.com/a/b/../c/./d.html",
			want:  "https://example.com/a/c/d.html",
		},
		{
			name:  "empty path becomes root",
			input: "https://example.com",
			want:  "https://example.com/",
		},
		{
			name:  "keeps non-default port",
			input: "http://127.0.0.1:8080/x",
			want:  "http://127.0.0.1:8080/x",
		},
		{name: "empty", input: "", wantErr: true},
		{name: "relative", input: "/news/a.html", wantErr: true},
		{name: "mailto", input: "mailto:someone@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := frontier.Canonicalize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://Example.com//a//b/?utm_medium=m&z=2&a=1#top",
		"http://example.com:8080/新闻/列表.html?q=中文",
		"https://example.com/a%2Fb/c",
		"https://example.com/?flag",
		"https://[::1]:443/x/../y/",
		"https://example.com/columns/de3fe4ea-1234/index.html?from=menu",
	}

	for _, in := range inputs {
		once, err := frontier.Canonicalize(in)
		require.NoError(t, err, in)
		twice, err := frontier.Canonicalize(once)
		require.NoError(t, err, once)
		assert.Equal(t, once, twice, in)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com/news/list/index.html")
	require.NoError(t, err)

	got, err := frontier.Resolve(base, "../2024/a.html?utm_campaign=z")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/news/2024/a.html", got)

	got, err = frontier.Resolve(base, "//cdn.example.com/p.html")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/p.html", got)

	_, err = frontier.Resolve(base, "javascript:void(0)")
	require.Error(t, err)
}

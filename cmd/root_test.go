package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/harvester/internal/crawler"
	"github.com/jonesrussell/north-cloud/harvester/testutils"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	for _, k := range []string{"LLM_API_KEY", "ANTHROPIC_API_KEY", "ENV_FILE", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Contains(t, execute(t, "version"), "harvester version "+Version)
}

func TestDebugFlagBindsConfig(t *testing.T) {
	t.Cleanup(func() {
		_ = rootCmd.PersistentFlags().Set("debug", "false")
		viper.Reset()
	})

	execute(t, "--debug", "version")

	assert.True(t, Debug)
	assert.True(t, viper.GetBool("app.debug"))
	assert.Equal(t, "console", viper.GetString("logger.format"))
}

func TestProbeCommand_JSON(t *testing.T) {
	site := testutils.NewSite(t, map[string]any{
		"/zwgk/content_1001.html": `<html><head><script type="application/ld+json">
{"@type": "NewsArticle", "headline": "关于开展城市环境整治工作的通知",
 "datePublished": "2025-05-30", "articleBody": "各街道办事处：现将城市环境整治工作方案印发给你们，请认真组织实施。"}
</script></head><body><h1>关于开展城市环境整治工作的通知</h1></body></html>`,
	})

	out := execute(t, "probe", site.URLFor("/zwgk/content_1001.html"), "-o", "json", "--category", "notice")

	var res crawler.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, crawler.StatusArticle, res.Status)
	require.NotNil(t, res.Article)
	assert.Equal(t, "关于开展城市环境整治工作的通知", res.Article.Title)
	assert.Equal(t, "notice", res.Article.Category)
}

package common_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/harvester/cmd/common"
	"github.com/jonesrussell/north-cloud/harvester/internal/config"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
)

func defaultConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SetDefaults()
	return cfg
}

func TestBuild_WiresPipeline(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Crawl.RespectRobots = true
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.Enabled = true

	d, err := common.Build(cfg, logger.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, d.Fetcher)
	assert.NotNil(t, d.Decoder)
	assert.NotNil(t, d.Classifier)
	assert.NotNil(t, d.Links)
	assert.NotNil(t, d.Articles)
	require.NotNil(t, d.Crawler)
	assert.Equal(t, cfg.Crawl.MaxPages, d.Crawler.Config().MaxPages)
}

func TestBuild_RequiresLogger(t *testing.T) {
	t.Parallel()

	_, err := common.Build(defaultConfig(), nil)
	require.ErrorIs(t, err, common.ErrLoggerRequired)

	_, err = common.Build(nil, logger.NewNop())
	require.ErrorIs(t, err, common.ErrConfigRequired)
}

func TestCheckFormat(t *testing.T) {
	t.Parallel()

	require.NoError(t, common.CheckFormat(common.FormatJSON))
	require.NoError(t, common.CheckFormat(common.FormatTable))
	require.ErrorIs(t, common.CheckFormat("xml"), common.ErrUnknownFormat)
}

func TestRenderMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.PageVisited()
	m.ExtractionFailed("parse_incomplete", nil)

	var buf bytes.Buffer
	common.RenderMetrics(&buf, m.Snapshot())
	assert.Contains(t, buf.String(), "Pages visited")
	assert.Contains(t, buf.String(), "Failed: parse_incomplete")
}

func TestPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", common.Preview(" a\n b\t c "))
	assert.Len(t, []rune(common.Preview(string(bytes.Repeat([]byte("x"), 500)))), 80)
}

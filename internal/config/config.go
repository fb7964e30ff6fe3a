// Package config loads the harvester configuration from a YAML file, .env
// files and environment variables, applies defaults and validates it.
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/harvester/internal/article"
	"github.com/jonesrussell/north-cloud/harvester/internal/classifier"
	"github.com/jonesrussell/north-cloud/harvester/internal/crawler"
	"github.com/jonesrussell/north-cloud/harvester/internal/fetcher"
	"github.com/jonesrussell/north-cloud/harvester/internal/links"
	"github.com/jonesrussell/north-cloud/harvester/internal/llm"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
)

// AppConfig holds process-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"omitempty,oneof=development staging production test"`
	Debug       bool   `mapstructure:"debug"`
}

// DecoderConfig tunes the charset cascade.
type DecoderConfig struct {
	// Candidates replaces the fixed fallback charset list.
	Candidates      []string `mapstructure:"candidates"`
	MinConfidence   int      `mapstructure:"min_confidence" validate:"gte=0,lte=100"`
	DisableDetector bool     `mapstructure:"disable_detector"`
}

// ScopeConfig holds the site and section tables.
type ScopeConfig struct {
	SectionRoots []string `mapstructure:"section_roots"`
	StrictHost   bool     `mapstructure:"strict_host"`
}

// Config is the full harvester configuration.
type Config struct {
	App        AppConfig              `mapstructure:"app"`
	Logger     logger.Config          `mapstructure:"logger"`
	Fetcher    fetcher.Config         `mapstructure:"fetcher"`
	Decoder    DecoderConfig          `mapstructure:"decoder"`
	Classifier classifier.RulesConfig `mapstructure:"classifier"`
	Links      links.Config           `mapstructure:"links"`
	Scope      ScopeConfig            `mapstructure:"scope"`
	Extractor  article.Config         `mapstructure:"extractor"`
	LLM        llm.Config             `mapstructure:"llm"`
	Crawl      crawler.Config         `mapstructure:"crawl"`
	// Sites are selector overrides appended to Extractor.Sites.
	Sites []article.SiteSelectors `mapstructure:"sites" validate:"dive"`
}

// Load decodes the settings held by v, applies defaults and validates the
// result. v is normally prepared with Init.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("build config decoder: %w", err)
	}
	if err = dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.SetDefaults()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults fills every section. Component defaults stay with their
// packages; this only reconciles settings shared between sections.
func (c *Config) SetDefaults() {
	c.Logger.SetDefaults()
	if c.App.Debug {
		c.Logger.Level = "debug"
	}
	if c.App.Environment == "development" {
		c.Logger.Development = true
		c.Logger.Format = logger.FormatConsole
	}

	c.Fetcher = c.Fetcher.WithDefaults()
	c.Links = c.Links.WithDefaults()
	c.LLM = c.LLM.WithDefaults()

	// One mode drives both the classifier thresholds and the crawl gate.
	if c.Crawl.Mode == "" {
		c.Crawl.Mode = c.Classifier.Mode
	}
	c.Crawl.RespectRobots = c.Crawl.RespectRobots || c.Fetcher.RespectRobots
	c.Crawl = c.Crawl.WithDefaults()
	if c.Classifier.Mode == "" {
		c.Classifier.Mode = c.Crawl.Mode
	}

	if len(c.Sites) > 0 {
		c.Extractor.Sites = append(c.Extractor.Sites, c.Sites...)
		c.Sites = nil
	}
	c.Extractor = c.Extractor.WithDefaults()
}

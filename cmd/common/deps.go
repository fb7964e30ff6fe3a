// Package common provides shared utilities for command implementations.
package common

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/harvester/internal/article"
	"github.com/jonesrussell/north-cloud/harvester/internal/classifier"
	"github.com/jonesrussell/north-cloud/harvester/internal/config"
	"github.com/jonesrussell/north-cloud/harvester/internal/crawler"
	"github.com/jonesrussell/north-cloud/harvester/internal/decoder"
	"github.com/jonesrussell/north-cloud/harvester/internal/fetcher"
	"github.com/jonesrussell/north-cloud/harvester/internal/frontier"
	"github.com/jonesrussell/north-cloud/harvester/internal/links"
	"github.com/jonesrussell/north-cloud/harvester/internal/llm"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
)

// Deps holds the wired pipeline shared by every command.
type Deps struct {
	Config     *config.Config
	Logger     logger.Logger
	Fetcher    *fetcher.Fetcher
	Decoder    *decoder.Decoder
	Classifier *classifier.Classifier
	Links      *links.Extractor
	Articles   *article.Extractor
	Crawler    *crawler.Crawler
}

// Validate ensures all required dependencies are present.
func (d *Deps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewDeps loads the configuration held by viper's global instance and
// builds the pipeline from it.
func NewDeps() (*Deps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return Build(cfg, log)
}

// Build wires every component from cfg.
func Build(cfg *config.Config, log logger.Logger) (*Deps, error) {
	d := &Deps{Config: cfg, Logger: log}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	scopeOpts := []frontier.ScopeOption{frontier.WithStrictHost(cfg.Scope.StrictHost)}
	if len(cfg.Scope.SectionRoots) > 0 {
		scopeOpts = append(scopeOpts, frontier.WithSectionRoots(cfg.Scope.SectionRoots))
	}
	scope := frontier.NewScope(scopeOpts...)

	d.Fetcher = fetcher.New(cfg.Fetcher, log.With(logger.String("component", "fetcher")))
	d.Decoder = decoder.New(log.With(logger.String("component", "decoder")), decoderOptions(cfg.Decoder)...)
	d.Links = links.New(cfg.Links, scope, log.With(logger.String("component", "links")))
	d.Classifier = classifier.New(classifier.NewRules(cfg.Classifier), d.Links)

	var articleOpts []article.Option
	if cfg.LLM.Usable() {
		client := llm.NewClient(cfg.LLM, log.With(logger.String("component", "llm")))
		articleOpts = append(articleOpts, article.WithCompleter(client, cfg.LLM.MaxInputChars))
	} else {
		log.Info("Model tier disabled", logger.Bool("enabled", cfg.LLM.Enabled))
	}
	d.Articles = article.New(cfg.Extractor, log.With(logger.String("component", "article")), articleOpts...)

	var robots crawler.RobotsGate
	if cfg.Crawl.RespectRobots {
		robots = fetcher.NewRobotsChecker(d.Fetcher.Client(), d.Fetcher.UserAgent(), cfg.Fetcher.RobotsCacheTTL)
	}

	c, err := crawler.New(crawler.Params{
		Config:     cfg.Crawl,
		Fetcher:    d.Fetcher,
		Decoder:    d.Decoder,
		Classifier: d.Classifier,
		Links:      d.Links,
		Scope:      scope,
		Articles:   d.Articles,
		Robots:     robots,
		Logger:     log.With(logger.String("component", "crawler")),
	})
	if err != nil {
		return nil, fmt.Errorf("create crawler: %w", err)
	}
	d.Crawler = c

	return d, nil
}

func decoderOptions(cfg config.DecoderConfig) []decoder.Option {
	var opts []decoder.Option
	if len(cfg.Candidates) > 0 {
		opts = append(opts, decoder.WithCandidates(cfg.Candidates...))
	}
	if cfg.MinConfidence > 0 {
		opts = append(opts, decoder.WithMinConfidence(cfg.MinConfidence))
	}
	if cfg.DisableDetector {
		opts = append(opts, decoder.WithDetector(nil))
	}
	return opts
}

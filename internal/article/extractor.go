// Package article extracts a structured record from a detail page through
// a fixed chain of tiers: site overrides, structured metadata, a generic
// readability pass, DOM rules and finally a single model call.
package article

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
	"github.com/jonesrussell/north-cloud/harvester/internal/llm"
	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
)

var (
	// ErrIncomplete means every tier ran and a required field is still empty.
	ErrIncomplete = errors.New("article: required fields missing")
	// ErrOversize means the model fallback was needed but the page text
	// exceeds its input bound.
	ErrOversize = errors.New("article: page text too large for model fallback")
)

// Error describes a failed extraction.
type Error struct {
	// Reason is ErrIncomplete or ErrOversize.
	Reason  error
	Missing []string
	Tiers   []string
	// Cause is the underlying tier failure, if any.
	Cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v (missing %s, tiers %s)",
		e.Reason, strings.Join(e.Missing, ","), strings.Join(e.Tiers, ","))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Cause}
}

// Extractor runs the tier chain. It holds no per-page state and is safe
// for concurrent use when its tiers and completer are.
type Extractor struct {
	cfg         Config
	tiers       []Tier
	sites       *Registry
	completer   llm.Completer
	maxLLMChars int
	log         logger.Logger
	clock       func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTiers replaces the default structured, readability, rules chain.
func WithTiers(tiers ...Tier) Option {
	return func(e *Extractor) {
		e.tiers = tiers
	}
}

// WithRegistry sets the site override table.
func WithRegistry(r *Registry) Option {
	return func(e *Extractor) {
		e.sites = r
	}
}

// WithCompleter enables the model fallback for pages whose visible text is
// at most maxChars characters.
func WithCompleter(c llm.Completer, maxChars int) Option {
	return func(e *Extractor) {
		e.completer = c
		e.maxLLMChars = maxChars
	}
}

// WithClock fixes the time used for crawl_time and date defaults.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.clock = now
	}
}

// New builds an Extractor.
func New(cfg Config, log logger.Logger, opts ...Option) *Extractor {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	e := &Extractor{
		cfg:   cfg,
		tiers: DefaultTiers(cfg),
		sites: NewRegistryFromSelectors(cfg.Sites, nil),
		log:   log,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxLLMChars <= 0 {
		e.maxLLMChars = llm.Config{}.WithDefaults().MaxInputChars
	}
	return e
}

// DefaultTiers is the generic chain in fixed order.
func DefaultTiers(cfg Config) []Tier {
	cfg = cfg.WithDefaults()
	return []Tier{
		StructuredTier(cfg),
		ReadabilityTier(cfg),
		RulesTier(cfg),
	}
}

// StructuredTier reads JSON-LD, Open Graph and date <meta> tags.
func StructuredTier(cfg Config) Tier {
	return structuredTier{dateNames: cfg.WithDefaults().MetaDateNames}
}

// ReadabilityTier runs the generic readability extractor.
func ReadabilityTier(cfg Config) Tier {
	return readabilityTier{cfg: cfg.WithDefaults()}
}

// RulesTier applies heading, date pattern and container heuristics.
func RulesTier(cfg Config) Tier {
	return rulesTier{cfg: cfg.WithDefaults()}
}

// Extract runs the chain on page. A site override, when registered for the
// page host, replaces the chain. Each tier runs only while a required
// field is empty, and the model is called at most once.
func (e *Extractor) Extract(ctx context.Context, page *dom.Page) (*Article, error) {
	if fn, ok := e.sites.Lookup(page.Host()); ok {
		return e.extractSite(ctx, page, fn)
	}

	var (
		p     Partial
		tiers []string
	)
	for _, t := range e.tiers {
		if p.Complete() {
			break
		}
		tiers = append(tiers, t.Name())
		got, err := t.Extract(ctx, page)
		if err != nil {
			e.log.Debug("Extraction tier failed",
				logger.String("tier", t.Name()),
				logger.URL(page.URL.String()),
				logger.Error(err),
			)
			continue
		}
		p.Merge(got)
	}

	if !p.Complete() {
		ran, err := e.fallback(ctx, page, &p)
		if ran {
			tiers = append(tiers, TierLLM)
		}
		if err != nil {
			reason := ErrIncomplete
			if errors.Is(err, ErrOversize) {
				reason, err = ErrOversize, nil
			}
			return nil, &Error{Reason: reason, Missing: p.Missing(), Tiers: tiers, Cause: err}
		}
	}

	if !p.Complete() {
		return nil, &Error{Reason: ErrIncomplete, Missing: p.Missing(), Tiers: tiers}
	}
	return e.finish(page, p, tiers), nil
}

func (e *Extractor) extractSite(ctx context.Context, page *dom.Page, fn SiteFunc) (*Article, error) {
	tiers := []string{TierSite}
	p, err := fn(ctx, page)
	if err != nil {
		return nil, &Error{Reason: ErrIncomplete, Missing: p.Missing(), Tiers: tiers, Cause: err}
	}
	if !p.Complete() {
		return nil, &Error{Reason: ErrIncomplete, Missing: p.Missing(), Tiers: tiers}
	}
	return e.finish(page, p, tiers), nil
}

// fallback is the model tier. ran reports whether the completer was called.
func (e *Extractor) fallback(ctx context.Context, page *dom.Page, p *Partial) (ran bool, err error) {
	if e.completer == nil {
		return false, nil
	}

	text := page.VisibleText()
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return false, nil
	}
	if n > e.maxLLMChars {
		e.log.Info("Page text exceeds model input bound",
			logger.URL(page.URL.String()),
			logger.Int("chars", n),
			logger.Int("limit", e.maxLLMChars),
		)
		return false, ErrOversize
	}

	fields, err := llm.Extract(ctx, e.completer, text)
	if err != nil {
		e.log.Warn("Model fallback unavailable",
			logger.URL(page.URL.String()),
			logger.Error(err),
		)
		return true, err
	}
	p.Merge(Partial{
		Title:       fields.Title,
		PublishTime: fields.PublishTime,
		Content:     fields.Content,
		Abstract:    fields.Abstract,
	})
	return true, nil
}

// LooksLikeErrorPage reports whether the page's visible text opens with a
// known error or consent-banner prefix.
func (e *Extractor) LooksLikeErrorPage(page *dom.Page) bool {
	text := page.VisibleText()
	return hasAnyPrefix(text, e.cfg.ErrorTitlePrefixes) || hasAnyPrefix(text, e.cfg.ErrorContentPrefixes)
}

// Sites is the override registry in use.
func (e *Extractor) Sites() *Registry {
	return e.sites
}

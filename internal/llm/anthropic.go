package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/retry"
)

// Client is a Completer backed by the Anthropic Messages API.
type Client struct {
	api  anthropic.Client
	cfg  Config
	log  logger.Logger
	wait func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithWait replaces the backoff sleep, for tests.
func WithWait(wait func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) {
		c.wait = wait
	}
}

// WithHTTPClient sets the transport used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.api = anthropic.NewClient(requestOptions(c.cfg, hc)...)
	}
}

// NewClient builds a Client. The SDK's own retries are disabled; a rate
// limited call is retried exactly once after cfg.RateLimitBackoff.
func NewClient(cfg Config, log logger.Logger, opts ...ClientOption) *Client {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		api:  anthropic.NewClient(requestOptions(cfg, nil)...),
		cfg:  cfg,
		log:  log,
		wait: retry.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func requestOptions(cfg Config, hc *http.Client) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	return opts
}

// Complete implements Completer.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	reply, err := c.send(ctx, system, user)
	if err == nil {
		return reply, nil
	}
	if !isRateLimited(err) {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	c.log.Warn("Model rate limited, backing off",
		logger.String("model", c.cfg.Model),
		logger.Duration("backoff", c.cfg.RateLimitBackoff),
	)
	if waitErr := c.wait(ctx, c.cfg.RateLimitBackoff); waitErr != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, waitErr)
	}

	reply, err = c.send(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return reply, nil
}

func (c *Client) send(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: anthropic.Float(c.cfg.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

func isRateLimited(err error) bool {
	var apiErr *anthropic.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// Package fetcher retrieves pages over a shared, pooled HTTP client with
// redirect following, scheduled retries and optional per-host rate limiting.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/retry"
)

// HTTP status boundaries used when routing responses.
const (
	statusSuccessLow   = 200
	statusSuccessHigh  = 300
	statusTooManyReqs  = 429
	statusServerErrLow = 500
)

// Page is the result of one successful fetch.
type Page struct {
	// FinalURL is the URL after all redirects were followed.
	FinalURL   string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the response Content-Type header.
func (p *Page) ContentType() string {
	return p.Header.Get("Content-Type")
}

// Fetcher retrieves pages. It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	retry     retry.Config
	limiter   *hostLimiter
	log       logger.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the pooled client built from Config.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithRetry replaces the retry schedule derived from Config.
func WithRetry(cfg retry.Config) Option {
	return func(f *Fetcher) { f.retry = cfg }
}

// NewClient builds the pooled client shared by every fetch in the process.
func NewClient(cfg Config) *http.Client {
	cfg = cfg.WithDefaults()

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.RequestTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxConnsPerHost:       cfg.MaxConnections,
		MaxIdleConns:          cfg.KeepAlive,
		MaxIdleConnsPerHost:   cfg.KeepAlive,
		IdleConnTimeout:       defaultIdleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:       cfg.RequestTimeout,
		Transport:     transport,
		CheckRedirect: RedirectPolicy(cfg.MaxRedirects),
	}
}

// New creates a Fetcher from cfg.
func New(cfg Config, log logger.Logger, opts ...Option) *Fetcher {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	f := &Fetcher{
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		retry: retry.Config{
			Delays:      cfg.RetryDelays,
			IsRetryable: retry.DefaultIsRetryable,
			Wait:        retry.Sleep,
		},
		log: log,
	}
	if cfg.RateLimit > 0 {
		f.limiter = newHostLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = NewClient(cfg)
	}
	return f
}

// Client exposes the underlying pooled client, e.g. for the robots checker.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// UserAgent returns the User-Agent sent with every request.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch retrieves rawURL, following redirects. Timeouts, connection resets,
// 429 and 5xx responses are retried on the configured schedule; other 4xx
// responses fail immediately. Every failure is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("parse url: %w", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	var (
		page     *Page
		attempts int
		status   int
	)

	err = retry.Do(ctx, f.retry, func(attempt int) error {
		attempts = attempt
		p, doErr := f.do(ctx, rawURL)
		if doErr != nil {
			var se *statusError
			if errors.As(doErr, &se) {
				status = se.code
			}
			f.log.Debug("fetch attempt failed",
				logger.URL(rawURL),
				logger.Int("attempt", attempt),
				logger.Error(doErr),
			)
			return doErr
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: status, Attempts: attempts, Err: err}
	}

	return page, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (*Page, error) {
	if f.limiter != nil {
		if err := f.limiter.wait(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req) //nolint:gosec // URL comes from the crawl frontier
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < statusSuccessLow || resp.StatusCode >= statusSuccessHigh {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBody))
		se := &statusError{code: resp.StatusCode}
		if resp.StatusCode == statusTooManyReqs || resp.StatusCode >= statusServerErrLow {
			return nil, retry.MarkTransient(se)
		}
		return nil, se
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, retry.MarkTransient(fmt.Errorf("read body: %w", err))
	}

	return &Page{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// hostLimiter keeps one token bucket per host.
type hostLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newHostLimiter(limit rate.Limit, burst int) *hostLimiter {
	return &hostLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (h *hostLimiter) wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	host := strings.ToLower(u.Hostname())

	h.mu.Lock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.limit, h.burst)
		h.limiters[host] = l
	}
	h.mu.Unlock()

	return l.Wait(ctx)
}

package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const maxRobotsBodyBytes = 512 * 1024

// RobotsChecker answers robots.txt questions with a per-host cache. A missing,
// unreachable or unparsable robots.txt allows everything.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration

	mu    sync.RWMutex
	rules map[string]robotsEntry
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// NewRobotsChecker creates a checker that fetches through client.
func NewRobotsChecker(client *http.Client, userAgent string, ttl time.Duration) *RobotsChecker {
	if ttl <= 0 {
		ttl = defaultRobotsCacheTTL
	}
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		ttl:       ttl,
		rules:     make(map[string]robotsEntry),
	}
}

// Allowed reports whether rawURL may be crawled.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	host := strings.ToLower(u.Host)
	if host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	entry, ok := r.cached(host)
	if !ok {
		entry = r.load(ctx, u.Scheme, host)
	}
	if entry.data == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return entry.data.TestAgent(path, r.userAgent), nil
}

func (r *RobotsChecker) cached(host string) (robotsEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.rules[host]
	if !ok || time.Since(e.fetchedAt) > r.ttl {
		return robotsEntry{}, false
	}
	return e, true
}

func (r *RobotsChecker) load(ctx context.Context, scheme, host string) robotsEntry {
	if scheme == "" {
		scheme = "https"
	}
	entry := robotsEntry{fetchedAt: time.Now()}

	if body, ok := r.download(ctx, scheme+"://"+host+"/robots.txt"); ok {
		if data, err := robotstxt.FromBytes(body); err == nil {
			entry.data = data
		}
	}

	r.mu.Lock()
	r.rules[host] = entry
	r.mu.Unlock()

	return entry
}

func (r *RobotsChecker) download(ctx context.Context, robotsURL string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req) //nolint:gosec // host comes from the crawl target
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < statusSuccessLow || resp.StatusCode >= statusSuccessHigh {
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, false
	}
	return body, true
}

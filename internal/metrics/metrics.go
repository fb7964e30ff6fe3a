// Package metrics provides per-crawl counters.
package metrics

import (
	"maps"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	StartTime      time.Time        `json:"start_time"`
	Duration       time.Duration    `json:"duration"`
	PagesVisited   int64            `json:"pages_visited"`
	FetchFailures  int64            `json:"fetch_failures"`
	DecodeDegraded int64            `json:"decode_degraded"`
	RobotsSkipped  int64            `json:"robots_skipped"`
	Listings       int64            `json:"listings"`
	Details        int64            `json:"details"`
	Unknown        int64            `json:"unknown"`
	Articles       int64            `json:"articles"`
	LLMCalls       int64            `json:"llm_calls"`
	Failures       map[string]int64 `json:"failures"`
	TierHits       map[string]int64 `json:"tier_hits"`
}

// Metrics holds the crawl counters. The zero value is not usable; call New.
type Metrics struct {
	mu   sync.Mutex
	snap Snapshot
	now  func() time.Time
}

// New creates a Metrics instance starting now.
func New() *Metrics {
	m := &Metrics{now: time.Now}
	m.snap = Snapshot{
		StartTime: m.now(),
		Failures:  make(map[string]int64),
		TierHits:  make(map[string]int64),
	}
	return m
}

// PageVisited counts one dequeued and fetched URL.
func (m *Metrics) PageVisited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.PagesVisited++
}

// FetchFailed counts one URL whose fetch exhausted its retries.
func (m *Metrics) FetchFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.FetchFailures++
}

// DecodeDegraded counts one permissive decode.
func (m *Metrics) DecodeDegraded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.DecodeDegraded++
}

// RobotsSkipped counts one URL refused by robots.txt.
func (m *Metrics) RobotsSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.RobotsSkipped++
}

// Classified counts one page classification by kind name.
func (m *Metrics) Classified(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case "detail":
		m.snap.Details++
	case "listing":
		m.snap.Listings++
	default:
		m.snap.Unknown++
	}
}

// ArticleExtracted counts one complete record and the tiers that produced it.
func (m *Metrics) ArticleExtracted(tiers []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Articles++
	m.countTiers(tiers)
}

// ExtractionFailed counts one failed extraction by reason.
func (m *Metrics) ExtractionFailed(reason string, tiers []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Failures[reason]++
	m.countTiers(tiers)
}

func (m *Metrics) countTiers(tiers []string) {
	for _, t := range tiers {
		m.snap.TierHits[t]++
		if t == "llm" {
			m.snap.LLMCalls++
		}
	}
}

// Snapshot returns a copy of the counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.snap
	s.Duration = m.now().Sub(s.StartTime)
	s.Failures = maps.Clone(m.snap.Failures)
	s.TierHits = maps.Clone(m.snap.TierHits)
	return s
}

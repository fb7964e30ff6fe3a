package metrics_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
)

func TestNew(t *testing.T) {
	m := metrics.New()
	assert.NotNil(t, m)
	assert.False(t, m.Snapshot().StartTime.IsZero())
}

func TestCounters(t *testing.T) {
	m := metrics.New()

	m.PageVisited()
	m.PageVisited()
	m.FetchFailed()
	m.DecodeDegraded()
	m.RobotsSkipped()
	m.Classified("detail")
	m.Classified("listing")
	m.Classified("unknown")
	m.ArticleExtracted([]string{"structured", "readability"})
	m.ExtractionFailed("parse_incomplete", []string{"structured", "readability", "rules", "llm"})

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.PagesVisited)
	assert.Equal(t, int64(1), s.FetchFailures)
	assert.Equal(t, int64(1), s.DecodeDegraded)
	assert.Equal(t, int64(1), s.RobotsSkipped)
	assert.Equal(t, int64(1), s.Details)
	assert.Equal(t, int64(1), s.Listings)
	assert.Equal(t, int64(1), s.Unknown)
	assert.Equal(t, int64(1), s.Articles)
	assert.Equal(t, int64(1), s.LLMCalls)
	assert.Equal(t, int64(2), s.TierHits["structured"])
	assert.Equal(t, int64(1), s.Failures["parse_incomplete"])
}

func TestSnapshotIsACopy(t *testing.T) {
	m := metrics.New()
	m.ExtractionFailed("network_error", nil)

	s := m.Snapshot()
	s.Failures["network_error"] = 99

	assert.Equal(t, int64(1), m.Snapshot().Failures["network_error"])
}

func TestConcurrentUpdates(t *testing.T) {
	m := metrics.New()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.PageVisited()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.Snapshot().PagesVisited)
}

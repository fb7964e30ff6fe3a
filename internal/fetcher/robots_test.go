package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/harvester/internal/fetcher"
)

func TestRobotsChecker_DisallowedPath(t *testing.T) {
	t.Parallel()

	var robotsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		robotsHits.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	rc := fetcher.NewRobotsChecker(srv.Client(), "TestBot", time.Hour)

	ok, err := rc.Allowed(context.Background(), srv.URL+"/news/a.html")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rc.Allowed(context.Background(), srv.URL+"/private/b.html")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, int32(1), robotsHits.Load(), "robots.txt should be cached per host")
}

func TestRobotsChecker_MissingAllowsAll(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	rc := fetcher.NewRobotsChecker(srv.Client(), "TestBot", 0)
	ok, err := rc.Allowed(context.Background(), srv.URL+"/anything")

	require.NoError(t, err)
	assert.True(t, ok)
}

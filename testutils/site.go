// Package testutils provides shared testing utilities across the application.
package testutils

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Page is one fixture response.
type Page struct {
	HTML        string
	Body        []byte
	ContentType string
	Status      int
	// Redirect, when set, answers with a 302 to this location.
	Redirect string
}

// Site is an httptest server serving fixture pages by path and counting hits.
type Site struct {
	*httptest.Server

	mu    sync.Mutex
	pages map[string]Page
	hits  map[string]int
}

// NewSite starts a fixture site and closes it when t finishes. Values may be
// a string (served as UTF-8 HTML) or a Page.
func NewSite(t testing.TB, pages map[string]any) *Site {
	t.Helper()

	s := &Site{
		pages: make(map[string]Page, len(pages)),
		hits:  make(map[string]int),
	}
	for path, v := range pages {
		switch p := v.(type) {
		case string:
			s.pages[path] = Page{HTML: p}
		case Page:
			s.pages[path] = p
		default:
			t.Fatalf("testutils: unsupported fixture type %T for %s", v, path)
		}
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	s.mu.Lock()
	s.hits[r.URL.Path]++
	p, ok := s.pages[key]
	if !ok {
		p, ok = s.pages[r.URL.Path]
	}
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if p.Redirect != "" {
		http.Redirect(w, r, p.Redirect, http.StatusFound)
		return
	}

	ct := p.ContentType
	if ct == "" {
		ct = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	status := p.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	body := p.Body
	if body == nil {
		body = []byte(p.HTML)
	}
	_, _ = w.Write(body)
}

// URLFor joins path onto the server URL.
func (s *Site) URLFor(path string) string {
	return s.Server.URL + path
}

// Hits is how often path was requested.
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits is the number of requests served, robots.txt excluded.
func (s *Site) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for path, c := range s.hits {
		if path != "/robots.txt" {
			n += c
		}
	}
	return n
}

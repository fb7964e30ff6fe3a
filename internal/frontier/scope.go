package frontier

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultSectionRoots identify path segments that name a section on their
// own, independent of directory nesting. Each pattern must capture "id".
var DefaultSectionRoots = []string{
	`^/columns/(?P<id>[0-9a-f-]{8,})/`,
}

var indexPage = regexp.MustCompile(`(?i)(?:^|/)(?:index|default)\.s?html?$`)

// Scope holds the immutable tables used for site and section decisions.
type Scope struct {
	roots []*regexp.Regexp
	// strictHost compares hosts exactly (after stripping "www.") instead of
	// by registrable domain.
	strictHost bool
}

// ScopeOption customizes a Scope.
type ScopeOption func(*Scope)

// WithStrictHost requires the exact host, ignoring a leading "www.".
func WithStrictHost(strict bool) ScopeOption {
	return func(s *Scope) { s.strictHost = strict }
}

// WithSectionRoots replaces the section-root patterns. Patterns that fail to
// compile or lack an "id" group are skipped.
func WithSectionRoots(patterns []string) ScopeOption {
	return func(s *Scope) { s.roots = compileRoots(patterns) }
}

// NewScope builds a Scope with DefaultSectionRoots.
func NewScope(opts ...ScopeOption) *Scope {
	s := &Scope{roots: compileRoots(DefaultSectionRoots)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func compileRoots(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil || re.SubexpIndex("id") < 0 {
			continue
		}
		out = append(out, re)
	}
	return out
}

// SiteKey returns the value two URLs must share to be on the same site.
func (s *Scope) SiteKey(host string) string {
	h := strings.ToLower(strings.TrimSuffix(host, "."))
	if hn, _, err := net.SplitHostPort(h); err == nil {
		h = hn
	}
	h = strings.TrimPrefix(h, "www.")
	if s.strictHost || h == "" || net.ParseIP(h) != nil || !strings.Contains(h, ".") {
		return h
	}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(h); err == nil {
		return etld1
	}
	return h
}

// SameSite reports whether a and b belong to the same site.
func (s *Scope) SameSite(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	ka := s.SiteKey(ua.Host)
	return ka != "" && ka == s.SiteKey(ub.Host)
}

// SameSection reports whether candidate lies inside the section anchored at
// base. When both paths carry the same kind of section root their ids must
// match. Otherwise candidate must sit under base's directory. The relation
// is directional: a parent section contains its children, not the reverse.
func (s *Scope) SameSection(base, candidate string) bool {
	bu, err := url.Parse(base)
	if err != nil {
		return false
	}
	cu, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if kb := s.SiteKey(bu.Host); kb == "" || kb != s.SiteKey(cu.Host) {
		return false
	}

	bp, cp := pathOf(bu), pathOf(cu)
	for _, re := range s.roots {
		bid, bok := rootID(re, bp)
		cid, cok := rootID(re, cp)
		if bok && cok {
			return bid == cid
		}
	}

	return strings.HasPrefix(cp, BaseDir(bp))
}

// SectionID returns the section-root id in rawURL's path, if any.
func (s *Scope) SectionID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	for _, re := range s.roots {
		if id, ok := rootID(re, pathOf(u)); ok {
			return id, true
		}
	}
	return "", false
}

func rootID(re *regexp.Regexp, p string) (string, bool) {
	m := re.FindStringSubmatch(p)
	if m == nil {
		return "", false
	}
	return m[re.SubexpIndex("id")], true
}

func pathOf(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return duplicateSlashes.ReplaceAllString(u.Path, "/")
}

// BaseDir returns the directory a section path scopes, always ending in "/".
// "/news/" and "/news/index.html" scope "/news/"; "/news/list_2.html" scopes
// "/news/"; "/news" scopes "/news/".
func BaseDir(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if strings.HasSuffix(p, "/") {
		return p
	}
	p = indexPage.ReplaceAllString(p, "/")
	if strings.HasSuffix(p, "/") {
		return p
	}

	i := strings.LastIndex(p, "/")
	if strings.Contains(p[i+1:], ".") {
		return p[:i+1]
	}
	return p + "/"
}

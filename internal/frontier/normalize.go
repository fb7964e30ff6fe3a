// Package frontier canonicalizes candidate URLs, decides whether they fall
// inside a crawl's site and section scope, and holds the breadth-first queue.
package frontier

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"
)

// trackingParams lists query keys dropped during canonicalization. Any key
// with a "utm_" prefix is dropped as well.
var trackingParams = map[string]struct{}{
	"from":    {},
	"spm":     {},
	"fbclid":  {},
	"gclid":   {},
	"gclsrc":  {},
	"dclid":   {},
	"msclkid": {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	errEmptyInput          = errors.New("canonicalize url: empty input")
	errMissingSchemeOrHost = errors.New("canonicalize url: missing scheme or host")
	errUnsupportedScheme   = errors.New("canonicalize url: unsupported scheme")
)

var duplicateSlashes = regexp.MustCompile(`/{2,}`)

// Canonicalize returns the join key for a URL: fragment removed, tracking
// parameters stripped, remaining query sorted, duplicate slashes collapsed,
// dot-segments resolved, host lowercased and default port dropped. A
// trailing slash is kept since many sites serve different pages with and
// without it. Canonicalize(Canonicalize(u)) == Canonicalize(u).
func Canonicalize(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errEmptyInput
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("canonicalize url: %w", err)
	}
	return canonical(u)
}

// Resolve joins href against base and canonicalizes the result.
func Resolve(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", errEmptyInput
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("canonicalize url: %w", err)
	}
	return canonical(base.ResolveReference(ref))
}

func canonical(u *url.URL) (string, error) {
	if u.Scheme == "" || u.Host == "" {
		return "", errMissingSchemeOrHost
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: %q", errUnsupportedScheme, u.Scheme)
	}

	out := url.URL{
		Scheme:   scheme,
		User:     u.User,
		Host:     canonicalHost(u, scheme),
		RawQuery: cleanQuery(u.RawQuery),
	}
	setEscapedPath(&out, canonicalPath(u.EscapedPath()))

	return out.String(), nil
}

func canonicalHost(u *url.URL, scheme string) string {
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	port := u.Port()
	if port == "" || defaultPorts[scheme] == port {
		return host
	}
	return host + ":" + port
}

func canonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	trailing := strings.HasSuffix(p, "/")
	cleaned := path.Clean(duplicateSlashes.ReplaceAllString(p, "/"))
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	if trailing && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

func setEscapedPath(u *url.URL, escaped string) {
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		u.Path = escaped
		return
	}
	u.Path = unescaped
	u.RawPath = escaped
}

// IsTrackingParam reports whether a query key is stripped by Canonicalize.
func IsTrackingParam(key string) bool {
	k := strings.ToLower(key)
	if strings.HasPrefix(k, "utm_") {
		return true
	}
	_, ok := trackingParams[k]
	return ok
}

// cleanQuery drops tracking pairs from a raw query and sorts the rest.
// Pairs are kept verbatim, so keys with ';' or bad escapes survive.
func cleanQuery(raw string) string {
	var kept []string
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if IsTrackingParam(key) {
			continue
		}
		kept = append(kept, pair)
	}
	slices.Sort(kept)
	return strings.Join(kept, "&")
}

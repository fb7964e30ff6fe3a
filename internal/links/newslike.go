package links

import (
	"net/url"
	"regexp"
	"strings"
)

const minNewsPathDepth = 2

var (
	htmlSuffix = regexp.MustCompile(`(?i)\.(?:s?html?|shtm|php|aspx?|jsp)$`)
	// idSegment is a last segment carrying a long number, e.g. 325028 or t20250327_325028.
	idSegment = regexp.MustCompile(`\d{4,}`)
	datePath  = regexp.MustCompile(`(?:^|/|[^\d])(?:19|20)\d{2}[-_/]?(?:0[1-9]|1[0-2])(?:[-_/]?(?:0[1-9]|[12]\d|3[01]))?(?:/|[^\d]|$)`)
)

type newsScorer struct {
	keywords []string
	terms    []string
}

func newNewsScorer(keywords, terms []string) *newsScorer {
	s := &newsScorer{}
	for _, k := range keywords {
		s.keywords = append(s.keywords, strings.ToLower(k))
	}
	for _, t := range terms {
		s.terms = append(s.terms, strings.ToLower(t))
	}
	return s
}

// score applies the gate (suffix or id/date-bearing last segment, and path
// depth of at least two) and then requires one of keyword, date or
// anchor-text signals.
func (s *newsScorer) score(rawURL, anchorText string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.TrimSuffix(u.Path, "/")
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if p == "" || len(segments) < minNewsPathDepth {
		return false
	}

	last := segments[len(segments)-1]
	hasDate := datePath.MatchString(u.Path)
	if !htmlSuffix.MatchString(last) && !idSegment.MatchString(last) && !hasDate {
		return false
	}

	return hasDate || s.hasKeyword(segments) || s.hasTerm(anchorText)
}

func (s *newsScorer) hasKeyword(segments []string) bool {
	for _, seg := range segments[:len(segments)-1] {
		seg = strings.ToLower(seg)
		for _, k := range s.keywords {
			if seg == k || strings.HasPrefix(seg, k+"_") || strings.HasPrefix(seg, k+"-") {
				return true
			}
		}
	}
	last := strings.ToLower(segments[len(segments)-1])
	for _, k := range s.keywords {
		if strings.HasPrefix(last, k+"_") || strings.HasPrefix(last, k+"-") {
			return true
		}
	}
	return false
}

func (s *newsScorer) hasTerm(text string) bool {
	text = strings.ToLower(text)
	if text == "" {
		return false
	}
	for _, t := range s.terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

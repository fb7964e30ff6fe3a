// Package pubdate finds and normalizes publication dates in page text,
// covering the common Chinese and numeric formats plus anything
// araddon/dateparse understands.
package pubdate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layout is the normalized output format.
const Layout = "2006-01-02"

var (
	// DensityPattern matches date-like substrings when counting dates on a listing page.
	DensityPattern = regexp.MustCompile(`(20\d{2})[.\-/年](\d{1,2})[.\-/月](\d{1,2})日?`)

	// timestampPattern finds a date with an optional clock in article text.
	timestampPattern = regexp.MustCompile(`((20\d{2})[年./-](\d{1,2})[月./-](\d{1,2})[日]?(?:\s+\d{2}:\d{2}(?::\d{2})?)?)`)

	compactPattern   = regexp.MustCompile(`(?:^|[^\d])(20\d{2})(\d{2})(\d{2})(?:[^\d]|$)`)
	relativePattern  = regexp.MustCompile(`(\d+)\s*(分钟|小时|天)前`)
	publishedPrefix  = regexp.MustCompile(`^(?:发布时间|发布日期|时间|日期|来源)[:：]?\s*`)
	fullWidthDigitsR = strings.NewReplacer(
		"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
		"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	)
)

// CountDates counts date-like substrings within the first limit bytes of text.
// A non-positive limit scans everything.
func CountDates(text string, limit int) int {
	if limit > 0 && len(text) > limit {
		text = text[:limit]
	}
	return len(DensityPattern.FindAllStringIndex(text, -1))
}

// Find returns the first date or timestamp found in text, verbatim.
func Find(text string) string {
	m := timestampPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// Normalize converts a publish-time string to YYYY-MM-DD. now anchors
// relative expressions such as "3天前" or "昨天".
func Normalize(s string, now time.Time) (string, bool) {
	s = strings.TrimSpace(fullWidthDigitsR.Replace(s))
	s = publishedPrefix.ReplaceAllString(s, "")
	if s == "" {
		return "", false
	}

	if m := DensityPattern.FindStringSubmatch(s); m != nil {
		if d, ok := civil(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	if m := compactPattern.FindStringSubmatch(s); m != nil {
		if d, ok := civil(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	if d, ok := relative(s, now); ok {
		return d, true
	}
	if t, err := dateparse.ParseIn(s, now.Location()); err == nil && t.Year() > 1970 {
		return t.Format(Layout), true
	}
	return "", false
}

// NormalizeOrToday is Normalize falling back to now's date.
func NormalizeOrToday(s string, now time.Time) string {
	if d, ok := Normalize(s, now); ok {
		return d
	}
	return now.Format(Layout)
}

func civil(y, m, d string) (string, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return "", false
	}
	return t.Format(Layout), true
}

func relative(s string, now time.Time) (string, bool) {
	switch {
	case strings.HasPrefix(s, "今天"), strings.HasPrefix(s, "刚刚"):
		return now.Format(Layout), true
	case strings.HasPrefix(s, "昨天"):
		return now.AddDate(0, 0, -1).Format(Layout), true
	case strings.HasPrefix(s, "前天"):
		return now.AddDate(0, 0, -2).Format(Layout), true
	}

	m := relativePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	switch m[2] {
	case "分钟":
		return now.Add(-time.Duration(n) * time.Minute).Format(Layout), true
	case "小时":
		return now.Add(-time.Duration(n) * time.Hour).Format(Layout), true
	default:
		return now.AddDate(0, 0, -n).Format(Layout), true
	}
}

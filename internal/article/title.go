package article

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
)

const (
	titleMinPlausible = 6
	titleMaxPlausible = 80
	// refineMargin is how much better a candidate must score to replace
	// the extracted title.
	refineMargin = 1.0
)

var titleCandidateSelectors = []string{
	"h1", "h2", `[class*="title"]`, `[id*="title"]`,
}

var titleKeywords = []string{
	"通知", "公告", "关于", "印发", "意见", "办法", "方案", "决定",
	"报告", "会议", "公示", "通报", "规划", "实施",
}

// titleSeparators split a <title> into page and site segments.
var titleSeparators = []string{"_", "|", " - ", "－", "—", "–", "·", "-"}

// refineTitle replaces a low quality title with the best scoring DOM
// candidate, then strips site-name affixes.
func refineTitle(page *dom.Page, title string) string {
	title = strings.TrimSpace(title)
	best, bestScore := title, scoreTitle(title)

	for _, c := range titleCandidates(page) {
		if s := scoreTitle(c); s > bestScore+refineMargin {
			best, bestScore = c, s
		}
	}
	return stripSiteAffixes(best, siteNameGuesses(page))
}

func titleCandidates(page *dom.Page) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, sel := range titleCandidateSelectors {
		page.Doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if goquery.NodeName(s) == "title" || s.Children().Length() > 2 {
				return
			}
			add(dom.SpacedText(s))
		})
	}
	add(page.Title())
	return out
}

// scoreTitle rewards a high share of Han characters, a plausible length
// and common document keywords.
func scoreTitle(t string) float64 {
	n := utf8.RuneCountInString(t)
	if n == 0 {
		return 0
	}

	var score float64
	score += hanRatio(t) * 4

	switch {
	case n >= titleMinPlausible && n <= titleMaxPlausible:
		score += 3
	case n >= defaultMinTitleChars && n <= titleMaxPlausible*2:
		score += 1
	default:
		score -= 3
	}

	for _, kw := range titleKeywords {
		if strings.Contains(t, kw) {
			score += 1
			break
		}
	}
	return score
}

func hanRatio(s string) float64 {
	var han, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(han) / float64(total)
}

// siteNameGuesses collects likely site names from og:site_name, the
// trailing segment of <title> and the domain's first label.
func siteNameGuesses(page *dom.Page) []string {
	var out []string
	if s := page.Meta("og:site_name", "SiteName"); s != "" {
		out = append(out, s)
	}
	if segs := splitTitle(page.Title()); len(segs) > 1 {
		out = append(out, segs[len(segs)-1])
	}
	if label := siteLabel(page.Host()); label != "" {
		out = append(out, label)
	}
	return out
}

func splitTitle(t string) []string {
	for _, sep := range titleSeparators {
		if strings.Contains(t, sep) {
			var out []string
			for _, part := range strings.Split(t, sep) {
				if p := strings.TrimSpace(part); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	return []string{strings.TrimSpace(t)}
}

// stripSiteAffixes removes a site name and its separator from either end
// of title, keeping the original when the remainder would be too short.
func stripSiteAffixes(title string, names []string) string {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || name == title {
			continue
		}
		if rest, ok := strings.CutSuffix(title, name); ok {
			if rest, ok := cutSeparator(rest, strings.CutSuffix); ok {
				title = keepIfPlausible(title, rest)
			}
		}
		if rest, ok := strings.CutPrefix(title, name); ok {
			if rest, ok := cutSeparator(rest, strings.CutPrefix); ok {
				title = keepIfPlausible(title, rest)
			}
		}
	}
	return title
}

// cutSeparator strips one separator from whichever end cut works on.
func cutSeparator(s string, cut func(s, sep string) (string, bool)) (string, bool) {
	s = strings.TrimSpace(s)
	for _, sep := range titleSeparators {
		if rest, ok := cut(s, strings.TrimSpace(sep)); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func keepIfPlausible(orig, rest string) string {
	if utf8.RuneCountInString(rest) < defaultMinTitleChars {
		return orig
	}
	return rest
}

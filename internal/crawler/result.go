package crawler

import (
	"github.com/jonesrussell/north-cloud/harvester/internal/article"
	"github.com/jonesrussell/north-cloud/harvester/internal/classifier"
)

// Status is the discriminator of a Result.
type Status string

const (
	StatusNetworkError Status = "network_error"
	StatusParseError   Status = "parse_error"
	StatusListing      Status = "listing"
	StatusArticle      Status = "article"
)

// Reason explains a failed Result.
type Reason string

const (
	ReasonNetwork    Reason = "network_error"
	ReasonDecode     Reason = "decode_error"
	ReasonIncomplete Reason = "parse_incomplete"
	ReasonOversize   Reason = "too_large_for_fallback"
	ReasonStale      Reason = "too_old"
)

// Legacy integer flags understood by older callers.
const (
	codeNetwork = -7
	codeParse   = 0
	codeListing = 1
	codeArticle = 11
)

// Result is what Probe and SmartCrawl hand back to the caller. URLs is set
// for StatusListing, Article for StatusArticle.
type Result struct {
	Status  Status           `json:"status"`
	Reason  Reason           `json:"reason,omitempty"`
	URL     string           `json:"url"`
	Kind    classifier.Kind  `json:"kind,omitempty"`
	URLs    []string         `json:"urls,omitempty"`
	Article *article.Article `json:"article,omitempty"`
}

// Code maps the status to the legacy flag: -7 network, 0 parse failure,
// 1 listing, 11 article.
func (r Result) Code() int {
	switch r.Status {
	case StatusNetworkError:
		return codeNetwork
	case StatusListing:
		return codeListing
	case StatusArticle:
		return codeArticle
	default:
		return codeParse
	}
}

// OK reports whether the result carries a payload.
func (r Result) OK() bool {
	return r.Status == StatusListing || r.Status == StatusArticle
}

func networkFailure(url string, reason Reason) Result {
	return Result{Status: StatusNetworkError, Reason: reason, URL: url}
}

func parseFailure(url string, kind classifier.Kind, reason Reason) Result {
	return Result{Status: StatusParseError, Reason: reason, URL: url, Kind: kind}
}

// Package llm asks a language model to pull article fields out of page text.
// It is the last extraction tier and is only reached when the cheaper tiers
// leave required fields empty.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/mitchellh/mapstructure"
)

// ErrUpstream wraps every failure of the model call itself.
var ErrUpstream = errors.New("llm: upstream failure")

// ErrNoJSON is returned when a reply holds no JSON object.
var ErrNoJSON = errors.New("llm: reply holds no json object")

// SystemPrompt instructs the model to copy fields verbatim from the page.
const SystemPrompt = `Your task is to operate as an HTML content extractor, focusing on parsing a provided HTML segment. Your objective is to retrieve the following details directly from the raw text within the HTML, without summarizing or altering the content:

- The document's title
- The complete main content, as it appears in the HTML, comprising all textual elements considered part of the core article body
- The publication time in its original format found within the HTML

Ensure your response fits the following JSON structure, accurately reflecting the extracted data without modification:

{
  "title": "The Document's Exact Title",
  "content": "All the unaltered primary text content from the article",
  "publish_time": "Original Publication Time as per HTML"
}

It is essential that your output adheres strictly to this format, with each field filled based on the untouched information extracted directly from the HTML source.`

// Completer sends one system+user exchange and returns the reply text.
//
//go:generate mockgen -destination=../../testutils/mocks/llm/completer_mock.go -package=llm github.com/jonesrussell/north-cloud/harvester/internal/llm Completer
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Fields is what the model returns. Any field may be empty.
type Fields struct {
	Title       string `mapstructure:"title"`
	Content     string `mapstructure:"content"`
	PublishTime string `mapstructure:"publish_time"`
	Abstract    string `mapstructure:"abstract"`
}

// ParseFields reads the first JSON object out of reply. Code fences, leading
// prose and malformed JSON (trailing commas, single quotes, unclosed
// braces) are tolerated.
func ParseFields(reply string) (Fields, error) {
	var f Fields

	body := stripFences(reply)
	start := strings.Index(body, "{")
	if start < 0 {
		return f, ErrNoJSON
	}
	body = body[start:]
	if end := strings.LastIndex(body, "}"); end >= 0 {
		body = body[:end+1]
	}

	repaired, err := jsonrepair.JSONRepair(body)
	if err != nil {
		return f, fmt.Errorf("llm: repair reply: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return f, fmt.Errorf("llm: decode reply: %w", err)
	}
	if err := mapstructure.WeakDecode(raw, &f); err != nil {
		return f, fmt.Errorf("llm: map reply: %w", err)
	}

	f.Title = strings.TrimSpace(f.Title)
	f.Content = strings.TrimSpace(f.Content)
	f.PublishTime = strings.TrimSpace(f.PublishTime)
	f.Abstract = strings.TrimSpace(f.Abstract)
	return f, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return rest
	}
	return s
}

// Extract sends page text with SystemPrompt and parses the reply. It makes
// exactly one Complete call.
func Extract(ctx context.Context, c Completer, text string) (Fields, error) {
	reply, err := c.Complete(ctx, SystemPrompt, text)
	if err != nil {
		return Fields{}, err
	}
	return ParseFields(reply)
}

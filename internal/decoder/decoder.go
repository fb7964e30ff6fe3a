// Package decoder turns fetched bytes into text, trying each plausible
// charset with a strict decode so CJK pages are never silently garbled.
package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/jonesrussell/north-cloud/harvester/internal/logger"
)

// Source records which step of the cascade produced the text.
type Source string

const (
	SourceHeader     Source = "header"
	SourceMeta       Source = "meta"
	SourceDetector   Source = "detector"
	SourceFallback   Source = "fallback"
	SourcePermissive Source = "permissive"
)

const (
	utf8Name    = "utf-8"
	gb18030Name = "gb18030"
	gbkName     = "cp936"
	big5Name    = "big5"

	defaultMetaScanBytes  = 8 * 1024
	defaultDetectorSample = 64 * 1024
	defaultMinConfidence  = 50
)

// ErrEmptyBody is returned when there is nothing to decode.
var ErrEmptyBody = errors.New("decode: empty body")

// ErrUndecodable marks a degraded result: no candidate decoded strictly and
// the text came from a permissive decode.
var ErrUndecodable = errors.New("decode: no candidate charset decoded cleanly")

// DefaultCandidates is the fixed list tried after every hint has failed.
var DefaultCandidates = []string{utf8Name, gb18030Name, gbkName, big5Name}

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-zA-Z0-9_.:\-]+)`)

// Result is decoded text plus how it was obtained.
type Result struct {
	Text     string
	Charset  string
	Source   Source
	Degraded bool
}

// Detector guesses a charset from a byte sample. Confidence is 0 to 100.
type Detector interface {
	Detect(sample []byte) (name string, confidence int, err error)
}

// Decoder runs the cascade. The zero value is not usable; call New.
type Decoder struct {
	detector      Detector
	minConfidence int
	candidates    []string
	metaScanBytes int
	sampleBytes   int
	log           logger.Logger
}

// Option customizes a Decoder.
type Option func(*Decoder)

// WithDetector replaces the statistical detector. nil disables the step.
func WithDetector(d Detector) Option {
	return func(dec *Decoder) { dec.detector = d }
}

// WithCandidates replaces the fixed fallback list.
func WithCandidates(names ...string) Option {
	return func(dec *Decoder) { dec.candidates = names }
}

// WithMinConfidence sets the detector confidence below which its guess is ignored.
func WithMinConfidence(c int) Option {
	return func(dec *Decoder) { dec.minConfidence = c }
}

// New returns a Decoder using chardet for the statistical step.
func New(log logger.Logger, opts ...Option) *Decoder {
	if log == nil {
		log = logger.NewNop()
	}
	d := &Decoder{
		detector:      NewChardetDetector(),
		minConfidence: defaultMinConfidence,
		candidates:    DefaultCandidates,
		metaScanBytes: defaultMetaScanBytes,
		sampleBytes:   defaultDetectorSample,
		log:           log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type attempt struct {
	name   string
	source Source
}

// Decode converts raw to text. The order is the Content-Type charset, the
// <meta> declaration in the first 8KB, the detector guess, then the fixed
// candidates. The first strict decode wins. When all fail the result is a
// permissive decode with Degraded set; only an empty body is an error.
func (d *Decoder) Decode(raw []byte, header http.Header) (*Result, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyBody
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	tried := make(map[string]bool)
	var firstHint string

	for _, a := range d.plan(raw, header) {
		name := NormalizeLabel(a.name)
		if name == "" || tried[name] {
			continue
		}
		tried[name] = true
		if firstHint == "" && a.source != SourceFallback {
			firstHint = name
		}

		text, ok := strictDecode(raw, name)
		if ok {
			return &Result{Text: text, Charset: name, Source: a.source}, nil
		}
		d.log.Debug("strict decode failed", logger.String("charset", name), logger.String("source", string(a.source)))
	}

	name := firstHint
	if name == "" {
		name = utf8Name
	}
	d.log.Warn("charset cascade exhausted, decoding permissively",
		logger.String("charset", name),
		logger.Error(ErrUndecodable),
	)

	return &Result{
		Text:     permissiveDecode(raw, name),
		Charset:  name,
		Source:   SourcePermissive,
		Degraded: true,
	}, nil
}

func (d *Decoder) plan(raw []byte, header http.Header) []attempt {
	var plan []attempt

	if cs := headerCharset(header); cs != "" {
		plan = append(plan, attempt{name: cs, source: SourceHeader})
	}
	if cs := d.metaCharset(raw); cs != "" {
		plan = append(plan, attempt{name: cs, source: SourceMeta})
	}
	if d.detector != nil {
		sample := raw
		if len(sample) > d.sampleBytes {
			sample = sample[:d.sampleBytes]
		}
		name, conf, err := d.detector.Detect(sample)
		switch {
		case err != nil:
			d.log.Debug("charset detector failed", logger.Error(err))
		case conf >= d.minConfidence:
			plan = append(plan, attempt{name: name, source: SourceDetector})
		}
	}
	for _, c := range d.candidates {
		plan = append(plan, attempt{name: c, source: SourceFallback})
	}
	return plan
}

func headerCharset(header http.Header) string {
	if header == nil {
		return ""
	}
	ct := header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return params["charset"]
}

func (d *Decoder) metaCharset(raw []byte) string {
	head := raw
	if len(head) > d.metaScanBytes {
		head = head[:d.metaScanBytes]
	}
	m := metaCharsetRe.FindSubmatch(head)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// NormalizeLabel lowercases a charset label and folds the GB family into
// gb18030, its superset. cp936 stays distinct. Unknown labels pass through.
func NormalizeLabel(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.Trim(l, `"'`)
	switch l {
	case "":
		return ""
	case "utf8", "utf-8", "utf_8":
		return utf8Name
	case "gbk", "gb2312", "gb-2312", "gb_2312", "gb_2312-80", "gb-18030", "gb18030", "x-gbk", "euc-cn":
		return gb18030Name
	case "cp936", "windows-936", "ms936":
		return gbkName
	case "big5", "big-5", "big5-hkscs", "cp950":
		return big5Name
	}
	return l
}

func lookup(name string) (encoding.Encoding, error) {
	switch name {
	case gb18030Name:
		return simplifiedchinese.GB18030, nil
	case gbkName:
		return simplifiedchinese.GBK, nil
	case big5Name:
		return traditionalchinese.Big5, nil
	}
	enc, _ := charset.Lookup(name)
	if enc == nil {
		return nil, fmt.Errorf("decode: unknown charset %q", name)
	}
	return enc, nil
}

// strictDecode fails on any byte sequence the charset cannot represent.
// x/text substitutes U+FFFD for invalid input, so its presence in the output
// of a non-UTF-8 decode counts as failure.
func strictDecode(raw []byte, name string) (string, bool) {
	if name == utf8Name {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}

	enc, err := lookup(name)
	if err != nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

func permissiveDecode(raw []byte, name string) string {
	if name != utf8Name {
		if enc, err := lookup(name); err == nil {
			if out, err := enc.NewDecoder().Bytes(raw); err == nil {
				return string(out)
			}
		}
	}
	return strings.ToValidUTF8(string(raw), "�")
}

package pubdate_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/harvester/internal/pubdate"
)

var now = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "chinese", input: "2025年5月30日 10:21", want: "2025-05-30", wantOK: true},
		{name: "dotted", input: "发布时间：2024.12.01", want: "2024-12-01", wantOK: true},
		{name: "slashes", input: "2024/1/2", want: "2024-01-02", wantOK: true},
		{name: "compact", input: "t20250327_325028", want: "2025-03-27", wantOK: true},
		{name: "iso", input: "2025-03-04T08:00:00+08:00", want: "2025-03-04", wantOK: true},
		{name: "rfc1123", input: "Tue, 04 Mar 2025 08:00:00 GMT", want: "2025-03-04", wantOK: true},
		{name: "full width digits", input: "２０２５年６月１日", want: "2025-06-01", wantOK: true},
		{name: "yesterday", input: "昨天 09:00", want: "2025-06-09", wantOK: true},
		{name: "days ago", input: "3天前", want: "2025-06-07", wantOK: true},
		{name: "invalid day", input: "2025-02-30", wantOK: false},
		{name: "garbage", input: "not a date", wantOK: false},
		{name: "empty", input: "   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := pubdate.Normalize(tt.input, now)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeOrToday(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2025-06-10", pubdate.NormalizeOrToday("unknown", now))
	assert.Equal(t, "2025-05-01", pubdate.NormalizeOrToday("2025-5-1", now))
}

func TestCountDates(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("通知公告 2025-05-30 ", 6)
	assert.Equal(t, 6, pubdate.CountDates(text, 0))
	assert.Less(t, pubdate.CountDates(text, 40), 6)
}

func TestFind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2025年05月30日 10:21:05", pubdate.Find("来源：市政府 2025年05月30日 10:21:05 浏览次数"))
	assert.Equal(t, "", pubdate.Find("no date here"))
}

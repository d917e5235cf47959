package lrc

import (
	"sort"
	"strconv"
	"strings"
)

// Line is a single timed lyric line.
type Line struct {
	ID          string `json:"id"`           // "<source line>.<tag index>", unique per timeline
	TimestampMs int64  `json:"timestamp_ms"` // offset from transcript start
	Content     string `json:"content"`      // empty for instrumental gaps
}

// Timeline is an immutable, timestamp-ordered sequence of lines.
// The zero value and nil are both valid empty timelines.
type Timeline struct {
	lines []Line
	meta  map[string]string
}

// Len returns the number of lines.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.lines)
}

// Line returns the line at index i.
func (t *Timeline) Line(i int) (Line, bool) {
	if i < 0 || i >= t.Len() {
		return Line{}, false
	}
	return t.lines[i], true
}

// Lines returns a copy of all lines in order.
func (t *Timeline) Lines() []Line {
	out := make([]Line, t.Len())
	if t != nil {
		copy(out, t.lines)
	}
	return out
}

// Metadata returns the value of an ID tag such as "ti", "ar" or "offset".
func (t *Timeline) Metadata(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.meta[strings.ToLower(key)]
	return v, ok
}

// AllMetadata returns a copy of every ID tag, keyed in lower case.
func (t *Timeline) AllMetadata() map[string]string {
	out := make(map[string]string)
	if t == nil {
		return out
	}
	for k, v := range t.meta {
		out[k] = v
	}
	return out
}

// OffsetMs returns the [offset:] tag value. It is informational only and is
// never applied to timestamps.
func (t *Timeline) OffsetMs() int64 {
	v, ok := t.Metadata("offset")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(v, "+"), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// DurationMs returns the timestamp of the last line, or 0 when empty.
func (t *Timeline) DurationMs() int64 {
	if t.Len() == 0 {
		return 0
	}
	return t.lines[len(t.lines)-1].TimestampMs
}

// Resolve returns the index of the active line at currentMs: the greatest i
// with lines[i].TimestampMs <= currentMs, or -1 if there is none.
// It keeps no state, so seeks in either direction are handled the same way
// as regular playback. currentMs must not be NaN.
func (t *Timeline) Resolve(currentMs float64) int {
	n := t.Len()
	i := sort.Search(n, func(i int) bool {
		return float64(t.lines[i].TimestampMs) > currentMs
	})
	return i - 1
}

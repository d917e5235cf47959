package lrc

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// timeTag matches one leading time tag: [mm:ss], [mm:ss.x], [mm:ss.xx], [mm:ss.xxx].
// A colon is accepted as the fraction separator as well.
var timeTag = regexp.MustCompile(`^\[(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?\]`)

// idTag matches metadata lines like [ar:Artist] or [offset:+250].
var idTag = regexp.MustCompile(`^\[([A-Za-z#]+):([^\]]*)\]\s*$`)

// Parse turns raw LRC text into a Timeline.
// It never fails: lines without a leading time tag are dropped, metadata tags
// are collected into Timeline.Metadata, and the result may be empty.
func Parse(text string) *Timeline {
	var lines []Line
	meta := make(map[string]string)

	for lineNo, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r")
		trimmed := strings.TrimLeft(raw, " \t\ufeff")

		stamps, rest := leadingStamps(trimmed)
		if len(stamps) == 0 {
			if m := idTag.FindStringSubmatch(trimmed); m != nil {
				meta[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
			}
			continue
		}

		content := strings.TrimSpace(rest)
		for tagIdx, ms := range stamps {
			lines = append(lines, Line{
				ID:          fmt.Sprintf("%d.%d", lineNo, tagIdx),
				TimestampMs: ms,
				Content:     content,
			})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].TimestampMs < lines[j].TimestampMs
	})

	return &Timeline{lines: lines, meta: meta}
}

// leadingStamps consumes every time tag at the start of s and returns their
// values in milliseconds along with the remaining text. Tags may be separated
// by spaces or tabs.
func leadingStamps(s string) ([]int64, string) {
	var stamps []int64
	for {
		loc := timeTag.FindStringSubmatchIndex(s)
		if loc == nil {
			return stamps, s
		}
		ms, ok := tagMillis(s[loc[2]:loc[3]], s[loc[4]:loc[5]], fraction(s, loc))
		if !ok {
			return stamps, s
		}
		stamps = append(stamps, ms)
		s = strings.TrimLeft(s[loc[1]:], " \t")
	}
}

func fraction(s string, loc []int) string {
	if loc[6] < 0 {
		return ""
	}
	return s[loc[6]:loc[7]]
}

// tagMillis converts the captured parts of a time tag to milliseconds.
// Fractions of 1-3 digits are scaled to thousandths, so ".5" is 500ms and
// ".05" is 50ms.
func tagMillis(min, sec, frac string) (int64, bool) {
	m, err := strconv.ParseInt(min, 10, 64)
	if err != nil {
		return 0, false
	}
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil || s >= 60 {
		return 0, false
	}

	var f int64
	if frac != "" {
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, false
		}
		for i := len(frac); i < 3; i++ {
			f *= 10
		}
	}

	return m*60_000 + s*1000 + f, true
}

// FormatTag renders a timestamp as an LRC time tag with hundredths,
// rounding down.
func FormatTag(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("[%02d:%02d.%02d]", ms/60_000, (ms/1000)%60, (ms%1000)/10)
}

package lrc

import (
	"math"
	"testing"
)

func threeLines() *Timeline {
	return Parse("[00:01.00]one\n[00:02.00]two\n[00:03.00]three")
}

func TestResolveBoundaries(t *testing.T) {
	tl := threeLines()

	tests := []struct {
		name string
		time float64
		want int
	}{
		{"before first", 999, -1},
		{"at first", 1000, 0},
		{"between", 1500, 0},
		{"just before third", 2999, 1},
		{"at last", 3000, 2},
		{"after last", 5000, 2},
		{"negative", -100, -1},
		{"negative infinity", math.Inf(-1), -1},
		{"positive infinity", math.Inf(1), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tl.Resolve(tt.time); got != tt.want {
				t.Errorf("Resolve(%v) = %d, want %d", tt.time, got, tt.want)
			}
		})
	}
}

func TestResolveSeekBackward(t *testing.T) {
	tl := threeLines()

	// Compare each call against a linear reference so call order never matters.
	times := []float64{5000, 3000, 2999, 2000, 1999, 1000, 999, 0, 4000, 1200}
	for _, ts := range times {
		want := -1
		for i, l := range tl.Lines() {
			if float64(l.TimestampMs) <= ts {
				want = i
			}
		}
		if got := tl.Resolve(ts); got != want {
			t.Errorf("Resolve(%v) = %d, want %d", ts, got, want)
		}
	}
}

func TestResolveEmpty(t *testing.T) {
	var nilTimeline *Timeline
	for _, tl := range []*Timeline{Parse(""), nilTimeline, {}} {
		for _, ts := range []float64{-1, 0, 1000, math.Inf(1)} {
			if got := tl.Resolve(ts); got != -1 {
				t.Errorf("Expected -1 for empty timeline at %v, got %d", ts, got)
			}
		}
	}
}

func TestResolveDuplicateTimestamps(t *testing.T) {
	tl := Parse("[00:01.00]a\n[00:01.00]b\n[00:02.00]c")
	if got := tl.Resolve(1000); got != 1 {
		t.Errorf("Expected the last of the tied lines (1), got %d", got)
	}
}

func TestResolveIdempotent(t *testing.T) {
	tl := threeLines()
	for _, ts := range []float64{0, 1000, 2500, 9000} {
		first := tl.Resolve(ts)
		for i := 0; i < 3; i++ {
			if got := tl.Resolve(ts); got != first {
				t.Errorf("Resolve(%v) changed between calls: %d then %d", ts, first, got)
			}
		}
	}
}

func TestTimelineAccessors(t *testing.T) {
	tl := threeLines()

	lines := tl.Lines()
	lines[0].Content = "mutated"
	if l, _ := tl.Line(0); l.Content != "one" {
		t.Error("Lines() must return a copy")
	}

	if _, ok := tl.Line(-1); ok {
		t.Error("Expected Line(-1) to report absent")
	}
	if _, ok := tl.Line(3); ok {
		t.Error("Expected Line(3) to report absent")
	}

	if tl.DurationMs() != 3000 {
		t.Errorf("Expected duration 3000, got %d", tl.DurationMs())
	}
	if Parse("").DurationMs() != 0 {
		t.Error("Expected zero duration for empty timeline")
	}
}

func TestAllMetadata(t *testing.T) {
	tl := Parse("[ti:Song]\n[Offset:+250]\n[00:01.00]one")

	meta := tl.AllMetadata()
	if len(meta) != 2 || meta["ti"] != "Song" || meta["offset"] != "+250" {
		t.Errorf("Unexpected metadata %v", meta)
	}

	meta["ti"] = "changed"
	if v, _ := tl.Metadata("ti"); v != "Song" {
		t.Error("AllMetadata must return a copy")
	}
	if tl.OffsetMs() != 250 {
		t.Errorf("Expected offset 250, got %d", tl.OffsetMs())
	}

	var nilTl *Timeline
	if len(nilTl.AllMetadata()) != 0 {
		t.Error("Expected empty metadata for nil timeline")
	}
}

package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

const threeLines = "[ti:Test Song]\n[00:01.00]one\n[00:02.00]two\n[00:03.00]three\n"

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.FATAL, Output: io.Discard})
}

func TestParseTimeArg(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"83500", 83500, false},
		{" 250.5 ", 250.5, false},
		{"1:23.5", 83500, false},
		{"0:00", 0, false},
		{"10:05", 605000, false},
		{"1:60", 0, true},
		{"x:10", 0, true},
		{"-1:10", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimeArg(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTimeArg(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseTimeArg(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseHeights(t *testing.T) {
	h, err := parseHeights("20, 30,25")
	if err != nil {
		t.Fatalf("parseHeights failed: %v", err)
	}
	if h.Measured() != 3 {
		t.Fatalf("Expected 3 measured heights, got %d", h.Measured())
	}
	if got := h.Before(2); got != 50 {
		t.Errorf("Expected 50 above line 2, got %v", got)
	}

	if h, err := parseHeights(""); err != nil || h.Measured() != 0 {
		t.Errorf("Expected empty heights, got %v (err %v)", h, err)
	}
	if _, err := parseHeights("20,tall"); err == nil {
		t.Error("Expected an error for a non-numeric height")
	}
}

func TestParseDurations(t *testing.T) {
	got, err := parseDurations("4s, 9.5s,500ms")
	if err != nil {
		t.Fatalf("parseDurations failed: %v", err)
	}
	want := []time.Duration{4 * time.Second, 9500 * time.Millisecond, 500 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("Expected %d durations, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Duration %d: got %v, want %v", i, got[i], want[i])
		}
	}

	if got, err := parseDurations("  "); err != nil || got != nil {
		t.Errorf("Expected nil for blank input, got %v (err %v)", got, err)
	}
	if _, err := parseDurations("-1s"); err == nil {
		t.Error("Expected an error for a negative time")
	}
	if _, err := parseDurations("later"); err == nil {
		t.Error("Expected an error for an invalid duration")
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[int64]string{
		0:      "0:00",
		-500:   "0:00",
		59_999: "0:59",
		83_500: "1:23",
		605000: "10:05",
	}
	for ms, want := range tests {
		if got := formatClock(ms); got != want {
			t.Errorf("formatClock(%d) = %q, want %q", ms, got, want)
		}
	}
}

func TestSplitArgs(t *testing.T) {
	pos, flags := splitArgs([]string{"song.lrc", "--title", "X"})
	if len(pos) != 1 || pos[0] != "song.lrc" {
		t.Errorf("Unexpected positional args: %v", pos)
	}
	if len(flags) != 2 || flags[0] != "--title" {
		t.Errorf("Unexpected flag args: %v", flags)
	}

	pos, flags = splitArgs([]string{"a", "b"})
	if len(pos) != 2 || flags != nil {
		t.Errorf("Expected only positional args, got %v / %v", pos, flags)
	}
}

func TestSimulate(t *testing.T) {
	var out bytes.Buffer
	stats := simulate(&out, lrc.Parse(threeLines), simOptions{
		Step:        500 * time.Millisecond,
		LineHeight:  20,
		Viewport:    100,
		UserScrolls: []time.Duration{1200 * time.Millisecond},
	},
		lyricsync.WithLogger(quietLogger()),
		lyricsync.WithCenterLine(false),
		lyricsync.WithQuietPeriod(3*time.Second),
	)

	want := []string{
		"[00:00.00] line   -  (none)",
		"[00:01.00] line   0  one",
		"[00:01.20] user scroll",
		"[00:02.00] line   1  two",
		"[00:03.00] line   2  three",
		"[00:04.20] scroll -> 40",
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("Expected %d lines of output, got %d:\n%s", len(want), len(got), out.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Line %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if stats.LineChanges != 4 || stats.Scrolls != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestSimulateWithoutUserScroll(t *testing.T) {
	var out bytes.Buffer
	stats := simulate(&out, lrc.Parse(threeLines), simOptions{
		Step:       time.Second,
		LineHeight: 20,
	},
		lyricsync.WithLogger(quietLogger()),
		lyricsync.WithCenterLine(false),
	)

	// Line 0 sits at the top already, so only lines 1 and 2 scroll.
	if stats.LineChanges != 4 || stats.Scrolls != 2 {
		t.Errorf("Unexpected stats: %+v\n%s", stats, out.String())
	}
	if !strings.Contains(out.String(), "[00:03.00] scroll -> 40") {
		t.Errorf("Expected a scroll to line 2 at 3s:\n%s", out.String())
	}
}

func newTestPlayer(t *testing.T) *playerModel {
	t.Helper()

	sess := lyricsync.NewSession(
		lyricsync.WithClock(lyricsync.NewManualClock(time.Unix(0, 0))),
		lyricsync.WithLogger(quietLogger()),
		lyricsync.WithCenterLine(false),
		lyricsync.WithQuietPeriod(3*time.Second),
	)
	t.Cleanup(sess.Close)

	m := newPlayerModel(sess, lrc.Parse(threeLines), "Test Song", 10*time.Second)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 13})
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlayerResize(t *testing.T) {
	m := newTestPlayer(t)

	if m.viewRows != 10 {
		t.Errorf("Expected 10 lyric rows, got %d", m.viewRows)
	}
	snap := m.sess.Snapshot()
	if snap.ViewportHeight != 10 || snap.MeasuredLines != 3 {
		t.Errorf("Expected viewport 10 with 3 measured lines, got %+v", snap)
	}
	for i, rows := range m.wrapped {
		if len(rows) != 1 {
			t.Errorf("Line %d wrapped to %d rows, want 1", i, len(rows))
		}
	}
}

func TestPlayerFollowsPlayback(t *testing.T) {
	m := newTestPlayer(t)
	t0 := time.Unix(100, 0)

	m.Update(tickMsg(t0))
	if m.pos != 0 || m.active != -1 {
		t.Fatalf("Expected position 0 with no active line, got %v / %d", m.pos, m.active)
	}

	m.Update(tickMsg(t0.Add(2500 * time.Millisecond)))
	if m.active != 1 || m.offset != 1 {
		t.Fatalf("Expected line 1 at row offset 1, got %d / %d", m.active, m.offset)
	}

	m.Update(key("up"))
	if m.offset != 0 {
		t.Errorf("Expected manual scroll to row 0, got %d", m.offset)
	}

	m.Update(tickMsg(t0.Add(3500 * time.Millisecond)))
	if m.active != 2 {
		t.Errorf("Expected line 2 active, got %d", m.active)
	}
	if m.offset != 0 {
		t.Errorf("Auto-scroll should be suppressed after a manual scroll, got offset %d", m.offset)
	}

	m.Update(key("c"))
	if m.offset != 2 {
		t.Errorf("Expected jump to row 2, got %d", m.offset)
	}
	if !strings.Contains(m.View(), "three") {
		t.Errorf("Expected the active line in view:\n%s", m.View())
	}
}

func TestPlayerPauseAndSeek(t *testing.T) {
	m := newTestPlayer(t)
	t0 := time.Unix(100, 0)

	m.Update(tickMsg(t0))
	m.Update(key("space"))
	if m.playing {
		t.Fatal("Expected playback to pause")
	}

	m.Update(tickMsg(t0.Add(time.Second)))
	if m.pos != 0 {
		t.Errorf("Paused position should not move, got %v", m.pos)
	}

	m.Update(key("right"))
	if m.pos != seekStep {
		t.Errorf("Expected position %v after seek, got %v", seekStep, m.pos)
	}
	if m.active != 2 {
		t.Errorf("Expected line 2 active after seeking, got %d", m.active)
	}

	m.Update(key("right"))
	m.Update(key("right"))
	if m.pos != m.length {
		t.Errorf("Seek should clamp to %v, got %v", m.length, m.pos)
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected q to quit")
	}
}

func TestPlayerStopsAtEnd(t *testing.T) {
	m := newTestPlayer(t)
	t0 := time.Unix(100, 0)

	m.Update(tickMsg(t0))
	m.Update(tickMsg(t0.Add(time.Minute)))
	if m.playing || m.pos != m.length {
		t.Errorf("Expected playback to stop at %v, got %v (playing %v)", m.length, m.pos, m.playing)
	}
}

func TestEventQueueKeepsLatest(t *testing.T) {
	q := &eventQueue{}
	for i := 0; i < 1000; i++ {
		q.ScrollRequested(float64(i))
	}
	q.ActiveLineChanged(3, nil)
	q.ActiveLineChanged(4, nil)

	active, hasActive, offset, hasScroll := q.take()
	if !hasActive || active != 4 {
		t.Errorf("Expected latest active line 4, got %d (%v)", active, hasActive)
	}
	if !hasScroll || offset != 999 {
		t.Errorf("Expected latest offset 999, got %v (%v)", offset, hasScroll)
	}

	if _, hasActive, _, hasScroll := q.take(); hasActive || hasScroll {
		t.Error("take should clear pending values")
	}
}

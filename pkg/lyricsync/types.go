package lyricsync

import (
	"errors"
	"time"

	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrMissingTitle       = errors.New("transcript title is required")
)

// Transcript is a stored LRC source with its derived summary.
type Transcript struct {
	ID         string    // UUID
	Title      string    // Song title
	Artist     string    // Artist name
	Source     string    // Raw LRC text
	LineCount  int       // Timed lines after parsing
	DurationMs int64     // Timestamp of the last line
	CreatedAt  time.Time // Set by storage on first save
}

// Timeline parses the stored source.
func (t *Transcript) Timeline() *lrc.Timeline {
	return lrc.Parse(t.Source)
}

type EventKind string

const (
	EventActiveLine EventKind = "active_line"
	EventScroll     EventKind = "scroll"
)

// Event is one notification emitted by a Session.
type Event struct {
	Kind     EventKind `json:"kind"`
	Index    int       `json:"index"`
	Line     *lrc.Line `json:"line,omitempty"`
	OffsetPx float64   `json:"offset_px,omitempty"`
}

// State is a point-in-time view of a Session.
type State struct {
	SessionID      string     `json:"session_id"`
	TranscriptID   string     `json:"transcript_id,omitempty"`
	LineCount      int        `json:"line_count"`
	MeasuredLines  int        `json:"measured_lines"`
	TimeMs         float64    `json:"time_ms"`
	ActiveIndex    int        `json:"active_index"`
	ActiveLine     *lrc.Line  `json:"active_line,omitempty"`
	OffsetPx       float64    `json:"offset_px"`
	Gate           string     `json:"gate"`
	ResumeAt       *time.Time `json:"resume_at,omitempty"`
	AutoScroll     bool       `json:"auto_scroll"`
	Mode           string     `json:"mode"`
	ViewportHeight float64    `json:"viewport_height"`
	TopPadding     float64    `json:"top_padding"`
	BottomPadding  float64    `json:"bottom_padding"`
}

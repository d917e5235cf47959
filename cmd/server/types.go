package main

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

// MaxTranscriptBytes bounds the LRC text accepted by POST /api/transcripts.
const MaxTranscriptBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type TranscriptDTO struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	LineCount  int       `json:"line_count"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type TranscriptDetailDTO struct {
	TranscriptDTO
	Source string `json:"lrc"`
}

func toTranscriptDTO(t *lyricsync.Transcript) TranscriptDTO {
	return TranscriptDTO{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		LineCount:  t.LineCount,
		DurationMs: t.DurationMs,
		CreatedAt:  t.CreatedAt,
	}
}

type ListTranscriptsResponse struct {
	Transcripts []TranscriptDTO `json:"transcripts"`
	Count       int             `json:"count"`
}

// AddTranscriptRequest is the JSON body for POST /api/transcripts. Title and
// artist may be omitted when the LRC carries ti/ar tags.
type AddTranscriptRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	LRC    string `json:"lrc"`
}

func (r *AddTranscriptRequest) Validate() error {
	if r.LRC == "" {
		return errors.New("lrc is required")
	}
	if len(r.LRC) > MaxTranscriptBytes {
		return fmt.Errorf("lrc too large: %d bytes (maximum: %d)", len(r.LRC), MaxTranscriptBytes)
	}
	return nil
}

type AddTranscriptResponse struct {
	Message string `json:"message"`
	TranscriptDTO
}

type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type LinesResponse struct {
	TranscriptID string     `json:"transcript_id"`
	Lines        []lrc.Line `json:"lines"`
	Count        int        `json:"count"`
	// OffsetMs is the [offset:] tag as written; it is not applied to Lines.
	OffsetMs int64 `json:"offset_ms"`
}

type ResolveResponse struct {
	TimeMs *float64  `json:"time_ms,omitempty"`
	Index  int       `json:"index"`
	Line   *lrc.Line `json:"line,omitempty"`
}

type OpenSessionRequest struct {
	TranscriptID string `json:"transcript_id"`
}

func (r *OpenSessionRequest) Validate() error {
	if r.TranscriptID == "" {
		return errors.New("transcript_id is required")
	}
	return nil
}

type SetTimeRequest struct {
	TimeMs *float64 `json:"time_ms"`
}

func (r *SetTimeRequest) Validate() error {
	if r.TimeMs == nil {
		return errors.New("time_ms is required")
	}
	if math.IsNaN(*r.TimeMs) {
		return errors.New("time_ms must be a number")
	}
	return nil
}

type HeightDTO struct {
	Index  int     `json:"index"`
	Height float64 `json:"height"`
}

type HeightsRequest struct {
	Heights []HeightDTO `json:"heights"`
}

func (r *HeightsRequest) Validate() error {
	if len(r.Heights) == 0 {
		return errors.New("heights cannot be empty")
	}
	return nil
}

type ViewportRequest struct {
	Height float64 `json:"height"`
}

func (r *ViewportRequest) Validate() error {
	if r.Height < 0 {
		return fmt.Errorf("height must not be negative: %v", r.Height)
	}
	return nil
}

// SessionResponse carries the session state and the events emitted since the
// previous call on the same session, timer-driven ones included.
type SessionResponse struct {
	State  lyricsync.State   `json:"state"`
	Events []lyricsync.Event `json:"events"`
}

type MetricsResponse struct {
	Status          string `json:"status"`
	Backend         string `json:"backend"`
	TranscriptCount int    `json:"transcript_count"`
	SessionCount    int    `json:"session_count"`
}

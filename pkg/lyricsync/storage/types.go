package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no transcript has the requested ID.
var ErrNotFound = errors.New("record not found")

// Transcript is the persisted form of an LRC transcript.
type Transcript struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title      string    `gorm:"index:idx_transcript_meta,priority:1" json:"title"`
	Artist     string    `gorm:"index:idx_transcript_meta,priority:2" json:"artist"`
	Source     string    `gorm:"type:text" json:"source"`
	LineCount  int       `json:"line_count"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

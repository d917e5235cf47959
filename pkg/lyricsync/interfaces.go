package lyricsync

import (
	"context"
	"time"

	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

// Service manages stored transcripts and opens playback sessions on them.
type Service interface {
	AddTranscript(ctx context.Context, title, artist, text string) (string, error)
	GetTranscript(ctx context.Context, id string) (*Transcript, error)
	ListTranscripts(ctx context.Context) ([]Transcript, error)
	DeleteTranscript(ctx context.Context, id string) error
	OpenSession(ctx context.Context, transcriptID string) (*Session, error)
	Close() error
}

type Storage interface {
	SaveTranscript(ctx context.Context, t *Transcript) error
	GetTranscript(ctx context.Context, id string) (*Transcript, error)
	ListTranscripts(ctx context.Context) ([]Transcript, error)
	DeleteTranscript(ctx context.Context, id string) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Listener receives the decisions a Session hands to its host.
// Calls are made after the session lock is released, so a listener may call
// back into the session.
type Listener interface {
	// ActiveLineChanged fires whenever the active index changes value and
	// whenever a new transcript is loaded. line is nil when index is -1.
	ActiveLineChanged(index int, line *lrc.Line)
	// ScrollRequested asks the host to scroll its view to offsetPx.
	ScrollRequested(offsetPx float64)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnActiveLine func(index int, line *lrc.Line)
	OnScroll     func(offsetPx float64)
}

func (f ListenerFuncs) ActiveLineChanged(index int, line *lrc.Line) {
	if f.OnActiveLine != nil {
		f.OnActiveLine(index, line)
	}
}

func (f ListenerFuncs) ScrollRequested(offsetPx float64) {
	if f.OnScroll != nil {
		f.OnScroll(offsetPx)
	}
}

// Clock supplies the current time and deferred callbacks. Sessions never read
// the wall clock directly.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

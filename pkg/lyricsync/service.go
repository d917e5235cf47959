package lyricsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

// lyricService is the default implementation of the Service interface.
type lyricService struct {
	storage Storage
	log     Logger
	config  *Config
}

// NewService opens the configured store. An explicit Storage wins, then a
// Redis URL, then the SQLite file at DBPath.
func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Sessions get their own prefixed logger unless one was supplied.
	var log Logger = cfg.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	var stor Storage
	var err error
	switch {
	case cfg.Storage != nil:
		stor = cfg.Storage
	case cfg.RedisURL != "":
		stor, err = NewRedisStorage(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis storage: %w", err)
		}
		log.Infof("Using redis transcript store")
	default:
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		log.Debugf("Using sqlite transcript store at %s", cfg.DBPath)
	}

	return &lyricService{
		storage: stor,
		log:     log,
		config:  cfg,
	}, nil
}

// AddTranscript parses text and stores it. Empty title or artist fall back to
// the [ti:] and [ar:] tags of the source.
func (s *lyricService) AddTranscript(ctx context.Context, title, artist, text string) (string, error) {
	tl := lrc.Parse(text)

	title = strings.TrimSpace(title)
	if title == "" {
		title, _ = tl.Metadata("ti")
	}
	artist = strings.TrimSpace(artist)
	if artist == "" {
		artist, _ = tl.Metadata("ar")
	}
	if title == "" {
		return "", ErrMissingTitle
	}

	if tl.Len() == 0 {
		s.log.Warnf("Transcript %q has no timed lines", title)
	}

	t := &Transcript{
		Title:      title,
		Artist:     artist,
		Source:     text,
		LineCount:  tl.Len(),
		DurationMs: tl.DurationMs(),
	}
	if err := s.storage.SaveTranscript(ctx, t); err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}

	s.log.Infof("Added transcript %s: %s by %s (%d lines)", t.ID, title, artist, t.LineCount)
	return t.ID, nil
}

func (s *lyricService) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	return s.storage.GetTranscript(ctx, id)
}

func (s *lyricService) ListTranscripts(ctx context.Context) ([]Transcript, error) {
	return s.storage.ListTranscripts(ctx)
}

func (s *lyricService) DeleteTranscript(ctx context.Context, id string) error {
	if err := s.storage.DeleteTranscript(ctx, id); err != nil {
		return err
	}
	s.log.Infof("Deleted transcript %s", id)
	return nil
}

// OpenSession loads a stored transcript into a new session built from the
// service's engine, clock and logger settings.
func (s *lyricService) OpenSession(ctx context.Context, transcriptID string) (*Session, error) {
	t, err := s.storage.GetTranscript(ctx, transcriptID)
	if err != nil {
		return nil, err
	}

	sess := newSession(s.config)
	sess.setTranscriptID(t.ID)
	sess.LoadTimeline(t.Timeline())

	s.log.Debugf("Opened session %s on transcript %s", sess.ID(), t.ID)
	return sess, nil
}

// Close releases all resources held by the service.
func (s *lyricService) Close() error {
	return s.storage.Close()
}

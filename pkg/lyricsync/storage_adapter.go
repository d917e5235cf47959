package lyricsync

import (
	"context"
	"errors"

	"github.com/himanishpuri/LyricSync/pkg/lyricsync/storage"
)

// backend is the subset of storage clients the adapter needs. Both
// storage.DBClient and storage.RedisClient satisfy it.
type backend interface {
	SaveTranscript(ctx context.Context, t *storage.Transcript) error
	GetTranscript(ctx context.Context, id string) (*storage.Transcript, error)
	ListTranscripts(ctx context.Context) ([]storage.Transcript, error)
	DeleteTranscript(ctx context.Context, id string) error
	Close() error
}

// storageAdapter adapts a storage client to implement the Storage interface.
type storageAdapter struct {
	db backend
}

func (s *storageAdapter) SaveTranscript(ctx context.Context, t *Transcript) error {
	row := toRow(t)
	if err := s.db.SaveTranscript(ctx, row); err != nil {
		return err
	}
	t.ID = row.ID
	t.CreatedAt = row.CreatedAt
	return nil
}

func (s *storageAdapter) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	row, err := s.db.GetTranscript(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	t := fromRow(row)
	return &t, nil
}

func (s *storageAdapter) ListTranscripts(ctx context.Context) ([]Transcript, error) {
	rows, err := s.db.ListTranscripts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Transcript, len(rows))
	for i := range rows {
		out[i] = fromRow(&rows[i])
	}
	return out, nil
}

func (s *storageAdapter) DeleteTranscript(ctx context.Context, id string) error {
	return mapNotFound(s.db.DeleteTranscript(ctx, id))
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func mapNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrTranscriptNotFound
	}
	return err
}

func toRow(t *Transcript) *storage.Transcript {
	return &storage.Transcript{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Source:     t.Source,
		LineCount:  t.LineCount,
		DurationMs: t.DurationMs,
		CreatedAt:  t.CreatedAt,
	}
}

func fromRow(r *storage.Transcript) Transcript {
	return Transcript{
		ID:         r.ID,
		Title:      r.Title,
		Artist:     r.Artist,
		Source:     r.Source,
		LineCount:  r.LineCount,
		DurationMs: r.DurationMs,
		CreatedAt:  r.CreatedAt,
	}
}

//go:build !js && !wasm
// +build !js,!wasm

package lyricsync

import (
	"context"

	"github.com/himanishpuri/LyricSync/pkg/lyricsync/storage"
)

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

// NewRedisStorage creates a Redis storage backend.
func NewRedisStorage(ctx context.Context, url string) (Storage, error) {
	rc, err := storage.NewRedisClient(ctx, url)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: rc}, nil
}

//go:build js && wasm
// +build js,wasm

package lyricsync

import (
	"context"
	"errors"
)

// ErrStorageUnavailable is returned by the built-in stores in browser builds.
// Pass a Storage with WithStorage instead.
var ErrStorageUnavailable = errors.New("built-in storage is not available in js/wasm builds")

func NewSQLiteStorage(dbPath string) (Storage, error) {
	return nil, ErrStorageUnavailable
}

func NewRedisStorage(ctx context.Context, url string) (Storage, error) {
	return nil, ErrStorageUnavailable
}

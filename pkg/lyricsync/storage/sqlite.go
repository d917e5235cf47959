//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "lyricsync.sqlite3"
const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// NewDBClient opens the database named by LYRICSYNC_DB_PATH, or
// DefaultDBFile when unset.
func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("LYRICSYNC_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// SQLite serialises writers; one connection avoids "database is locked".
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Transcript{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveTranscript inserts t, or updates it if the ID already exists. An empty
// ID is replaced by a new UUID.
func (c *DBClient) SaveTranscript(ctx context.Context, t *Transcript) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := c.DB.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}
	return nil
}

func (c *DBClient) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var t Transcript
	err := c.DB.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying transcript: %w", err)
	}
	return &t, nil
}

// ListTranscripts returns every transcript ordered by artist and title,
// without the source text.
func (c *DBClient) ListTranscripts(ctx context.Context) ([]Transcript, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Transcript
	err := c.DB.WithContext(ctx).
		Select("id", "title", "artist", "line_count", "duration_ms", "created_at").
		Order("artist, title").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing transcripts: %w", err)
	}
	return rows, nil
}

func (c *DBClient) DeleteTranscript(ctx context.Context, id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.WithContext(ctx).Where("id = ?", id).Delete(&Transcript{})
	if res.Error != nil {
		return fmt.Errorf("deleting transcript: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

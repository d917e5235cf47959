//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const defaultRedisPrefix = "lyricsync"

// RedisClient stores transcripts as JSON values with a set of known IDs.
type RedisClient struct {
	client *redisClient.Client
	prefix string
}

// NewRedisClient connects to url ("redis://[:password@]host:port/db" or
// "rediss://...") and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*RedisClient, error) {
	opt, err := redisClient.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rc := &RedisClient{client: redisClient.NewClient(opt), prefix: defaultRedisPrefix}

	if err := rc.client.Ping(ctx).Err(); err != nil {
		rc.client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rc, nil
}

func (r *RedisClient) transcriptKey(id string) string {
	return fmt.Sprintf("%s:transcript:%s", r.prefix, id)
}

func (r *RedisClient) indexKey() string {
	return r.prefix + ":transcripts"
}

func (r *RedisClient) SaveTranscript(ctx context.Context, t *Transcript) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redisClient.Pipeliner) error {
		pipe.Set(ctx, r.transcriptKey(t.ID), data, 0)
		pipe.SAdd(ctx, r.indexKey(), t.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving transcript %s: %w", t.ID, err)
	}
	return nil
}

func (r *RedisClient) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	data, err := r.client.Get(ctx, r.transcriptKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redisClient.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading transcript %s: %w", id, err)
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding transcript %s: %w", id, err)
	}
	return &t, nil
}

// ListTranscripts returns every transcript ordered by artist and title,
// without the source text. IDs whose value has disappeared are skipped.
func (r *RedisClient) ListTranscripts(ctx context.Context) ([]Transcript, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("listing transcript ids: %w", err)
	}
	if len(ids) == 0 {
		return []Transcript{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.transcriptKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading transcripts: %w", err)
	}

	out := make([]Transcript, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var t Transcript
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			continue // skip corrupt entries
		}
		t.Source = ""
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Artist != out[j].Artist {
			return out[i].Artist < out[j].Artist
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (r *RedisClient) DeleteTranscript(ctx context.Context, id string) error {
	var del *redisClient.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redisClient.Pipeliner) error {
		del = pipe.Del(ctx, r.transcriptKey(id))
		pipe.SRem(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting transcript %s: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

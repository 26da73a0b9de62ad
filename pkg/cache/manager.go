package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the store
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Each entry is one Redis hash. The body and the retention deadline live in
// their own fields so a revalidation only rewrites the deadline.
const (
	fieldBody    = "body"
	fieldMeta    = "meta"
	fieldExpires = "expires"
)

// entryMeta is the validator and header part of an entry.
type entryMeta struct {
	ETag         string      `json:"etag,omitempty"`
	LastModified time.Time   `json:"last_modified,omitempty"`
	StatusCode   int         `json:"status_code"`
	Headers      http.Header `json:"headers,omitempty"`
	CachedAt     time.Time   `json:"cached_at"`
}

// Manager stores revalidation entries in Redis.
type Manager struct {
	redis *redis.Client
}

// NewManager creates a store on top of redisClient. It panics on nil.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{redis: redisClient}
}

// Get returns the stored entry for key.
// A missing or past-retention entry is ErrCacheMiss; an unreadable one is
// ErrInvalidEntry.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	fields, err := m.redis.HGetAll(ctx, key.String()).Result()
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	entry, err := decodeEntry(fields)
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, err
	}

	// Redis evicts on the deadline too; this covers clock skew.
	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return entry, nil
}

// Set replaces the entry for key and lets Redis evict it at entry.Expires.
// Entries already past the deadline are not stored.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if entry.TTL() <= 0 {
		return nil
	}

	meta, err := json.Marshal(entryMeta{
		ETag:         entry.ETag,
		LastModified: entry.LastModified,
		StatusCode:   entry.StatusCode,
		Headers:      entry.Headers,
		CachedAt:     entry.CachedAt,
	})
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal entry meta: %w", err)
	}

	name := key.String()
	_, err = m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, name)
		pipe.HSet(ctx, name,
			fieldBody, entry.Data,
			fieldMeta, meta,
			fieldExpires, strconv.FormatInt(entry.Expires.UnixMilli(), 10),
		)
		pipe.PExpireAt(ctx, name, entry.Expires)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis store entry: %w", err)
	}

	CacheSize.WithLabelValues("redis").Add(float64(len(entry.Data)))
	return nil
}

// Delete removes an entry.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Touch extends retention of an existing entry after the origin confirmed
// it with 304 Not Modified. The body is left alone and the deadline never
// moves backwards.
func (m *Manager) Touch(ctx context.Context, key CacheKey, until time.Time) error {
	name := key.String()

	raw, err := m.redis.HGet(ctx, name, fieldExpires).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		CacheErrors.WithLabelValues("touch").Inc()
		return fmt.Errorf("redis hget: %w", err)
	}

	current, err := parseDeadline(raw)
	if err != nil {
		return err
	}
	if !until.After(current) {
		return nil
	}

	_, err = m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, name, fieldExpires, strconv.FormatInt(until.UnixMilli(), 10))
		pipe.PExpireAt(ctx, name, until)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("touch").Inc()
		return fmt.Errorf("redis extend retention: %w", err)
	}
	return nil
}

// Ping checks that the Redis backend is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.redis.Ping(ctx).Err()
}

func decodeEntry(fields map[string]string) (*CacheEntry, error) {
	body, hasBody := fields[fieldBody]
	rawMeta, hasMeta := fields[fieldMeta]
	if !hasBody || !hasMeta {
		return nil, fmt.Errorf("%w: missing fields", ErrInvalidEntry)
	}

	var meta entryMeta
	if err := json.Unmarshal([]byte(rawMeta), &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	expires, err := parseDeadline(fields[fieldExpires])
	if err != nil {
		return nil, err
	}

	return &CacheEntry{
		Data:         []byte(body),
		ETag:         meta.ETag,
		Expires:      expires,
		LastModified: meta.LastModified,
		StatusCode:   meta.StatusCode,
		Headers:      meta.Headers,
		CachedAt:     meta.CachedAt,
	}, nil
}

func parseDeadline(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: expires %q", ErrInvalidEntry, raw)
	}
	return time.UnixMilli(ms), nil
}

package cache

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis on DB 15 and skips the test when
// none is running. Container-backed tests live behind the integration tag.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func testKey(page string) CacheKey {
	return CacheKey{
		Origin:      "localhost:3000",
		Endpoint:    "/api/products",
		QueryParams: url.Values{"page": {page}, "per_page": {"15"}},
	}
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client)
	if manager == nil {
		t.Fatal("NewManager returned nil")
	}
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_SetAndGet(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := testKey("1")

	entry := &CacheEntry{
		Data:         []byte(`[{"id":1,"name":"Tee"}]`),
		ETag:         `"abc123"`,
		Expires:      time.Now().Add(DefaultRetention),
		LastModified: time.Now().Add(-1 * time.Hour),
		StatusCode:   200,
		Headers:      http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:     time.Now(),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(retrieved.Data) != string(entry.Data) {
		t.Errorf("Data = %s, want %s", retrieved.Data, entry.Data)
	}
	if retrieved.ETag != entry.ETag {
		t.Errorf("ETag = %s, want %s", retrieved.ETag, entry.ETag)
	}
	if retrieved.StatusCode != entry.StatusCode {
		t.Errorf("StatusCode = %d, want %d", retrieved.StatusCode, entry.StatusCode)
	}

	// A different page is a different entry.
	if _, err := manager.Get(ctx, testKey("2")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(page 2) error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	_, err := manager.Get(context.Background(), CacheKey{Endpoint: "/api/products/404"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Set_ExpiredEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := testKey("1")

	entry := &CacheEntry{
		Data:    []byte(`[]`),
		Expires: time.Now().Add(-1 * time.Hour),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Get_InvalidEntry(t *testing.T) {
	tests := []struct {
		name   string
		fields []any
	}{
		{"bad meta", []any{"body", "[]", "meta", "not-json", "expires", strconv.FormatInt(time.Now().Add(time.Minute).UnixMilli(), 10)}},
		{"bad deadline", []any{"body", "[]", "meta", `{"status_code":200}`, "expires", "soon"}},
		{"no body", []any{"meta", `{"status_code":200}`, "expires", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTestRedis(t)
			manager := NewManager(client)
			ctx := context.Background()
			key := testKey("1")

			if err := client.HSet(ctx, key.String(), tt.fields...).Err(); err != nil {
				t.Fatalf("seed: %v", err)
			}

			if _, err := manager.Get(ctx, key); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("Get() error = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

func TestManager_Set_RedisExpiry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()
	key := testKey("1")

	entry := &CacheEntry{
		Data:    []byte(`[]`),
		Expires: time.Now().Add(5 * time.Minute),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ttl, err := client.PTTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatalf("PTTL: %v", err)
	}
	if ttl <= 4*time.Minute || ttl > 5*time.Minute {
		t.Errorf("redis TTL = %v, want about 5m", ttl)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := testKey("1")

	entry := &CacheEntry{
		Data:    []byte(`[]`),
		Expires: time.Now().Add(5 * time.Minute),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after Delete error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Touch(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := testKey("1")

	entry := &CacheEntry{
		Data:    []byte(`[]`),
		Expires: time.Now().Add(5 * time.Minute),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	later := time.Now().Add(20 * time.Minute)
	if err := manager.Touch(ctx, key, later); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after Touch failed: %v", err)
	}
	if diff := retrieved.Expires.Sub(later); diff < -time.Second || diff > time.Second {
		t.Errorf("Expires = %v, want %v", retrieved.Expires, later)
	}

	// An earlier deadline does not shorten retention.
	if err := manager.Touch(ctx, key, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	retrieved, _ = manager.Get(ctx, key)
	if retrieved.Expires.Before(later.Add(-time.Second)) {
		t.Errorf("Touch moved deadline backwards to %v", retrieved.Expires)
	}
}

func TestManager_Touch_Missing(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	err := manager.Touch(context.Background(), testKey("9"), time.Now().Add(time.Minute))
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Touch() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Touch_KeepsBody(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()
	key := testKey("1")

	entry := &CacheEntry{
		Data:       []byte(`[{"id":7}]`),
		ETag:       `"v1"`,
		StatusCode: 200,
		Expires:    time.Now().Add(time.Minute),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := manager.Touch(ctx, key, time.Now().Add(30*time.Minute)); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	body, err := client.HGet(ctx, key.String(), "body").Result()
	if err != nil {
		t.Fatalf("HGET body: %v", err)
	}
	if body != `[{"id":7}]` {
		t.Errorf("body = %s, want unchanged", body)
	}

	ttl, _ := client.PTTL(ctx, key.String()).Result()
	if ttl < 29*time.Minute {
		t.Errorf("redis TTL = %v, want extended to about 30m", ttl)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after Touch failed: %v", err)
	}
	if retrieved.ETag != `"v1"` {
		t.Errorf("ETag = %s, want \"v1\"", retrieved.ETag)
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	if err := manager.Set(context.Background(), testKey("1"), nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}

func TestManager_Ping(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	if err := manager.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

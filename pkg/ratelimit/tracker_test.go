package ratelimit

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis connects to a local Redis or skips the test.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
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

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name          string
		remain        string
		reset         string
		wantRemaining int
		wantReset     time.Duration
		wantOK        bool
		wantErr       bool
	}{
		{name: "healthy", remain: "100", reset: "60", wantRemaining: 100, wantReset: time.Minute, wantOK: true},
		{name: "exhausted", remain: "0", reset: "30", wantRemaining: 0, wantReset: 30 * time.Second, wantOK: true},
		{name: "missing both", wantOK: false},
		{name: "missing remain", reset: "60", wantOK: false},
		{name: "invalid remain", remain: "invalid", reset: "60", wantErr: true},
		{name: "invalid reset", remain: "100", reset: "soon", wantErr: true},
		{name: "missing reset", remain: "100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.remain != "" {
				headers.Set(HeaderRemaining, tt.remain)
			}
			if tt.reset != "" {
				headers.Set(HeaderReset, tt.reset)
			}

			remaining, reset, ok, err := ParseHeaders(headers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHeaders() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if remaining != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", remaining, tt.wantRemaining)
			}
			if reset != tt.wantReset {
				t.Errorf("reset = %v, want %v", reset, tt.wantReset)
			}
		})
	}
}

func TestStateKey(t *testing.T) {
	if got := StateKey("localhost:3000"); got != "catalog:localhost:3000:rate_limit" {
		t.Errorf("StateKey() = %q", got)
	}
	if got := StateKey(""); got != "catalog:default:rate_limit" {
		t.Errorf("StateKey(\"\") = %q", got)
	}
}

func TestUpdateFromHeaders_NoHeadersIsNoop(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	// nil redis: a no-op update must not touch it
	tracker := NewTracker(nil, "test", logger)

	if err := tracker.UpdateFromHeaders(context.Background(), http.Header{}); err != nil {
		t.Errorf("UpdateFromHeaders() error = %v, want nil", err)
	}
}

func TestUpdateFromHeaders_InvalidHeaders(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(nil, "test", logger)

	headers := http.Header{}
	headers.Set(HeaderRemaining, "lots")
	headers.Set(HeaderReset, "60")

	if err := tracker.UpdateFromHeaders(context.Background(), headers); err == nil {
		t.Error("Expected error for invalid remaining header")
	}
}

func TestTracker_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(client, "roundtrip", logger)
	ctx := context.Background()

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.IsHealthy {
		t.Error("Default state should be healthy")
	}

	headers := http.Header{}
	headers.Set(HeaderRemaining, "0")
	headers.Set(HeaderReset, "60")
	if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err = tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", state.Remaining)
	}

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("Request should be refused while exhausted")
	}
}

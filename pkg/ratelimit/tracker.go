package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_api_rate_limit_remaining",
		Help: "Requests remaining in the current catalog API rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_api_rate_limit_blocks_total",
		Help: "Total number of requests refused locally because the catalog API budget was exhausted",
	})
)

// Hash fields of the stored state.
const (
	fieldRemaining  = "remaining"
	fieldResetAt    = "reset_at"
	fieldLastUpdate = "last_update"
)

// Tracker monitors the catalog API rate limit and gates requests.
type Tracker struct {
	redis  *redis.Client
	key    string
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker. namespace separates the state
// of different API origins sharing one Redis.
func NewTracker(redisClient *redis.Client, namespace string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		key:    StateKey(namespace),
		logger: logger,
	}
}

// StateKey returns the Redis key holding the state for namespace.
func StateKey(namespace string) string {
	if namespace == "" {
		namespace = "default"
	}
	return "catalog:" + namespace + ":rate_limit"
}

// GetState retrieves the current rate limit state from Redis.
// Returns a default healthy state if no data exists in Redis.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	fields, err := t.redis.HGetAll(ctx, t.key).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	if len(fields) == 0 {
		t.logger.Debug().Msg("No rate limit state in Redis, returning default healthy state")
		return &RateLimitState{
			Remaining:  RemainingThresholdWarning * 10,
			ResetAt:    time.Now(),
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}

	remaining, err := strconv.Atoi(fields[fieldRemaining])
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	resetUnix, err := strconv.ParseInt(fields[fieldResetAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse reset timestamp: %w", err)
	}
	lastUnix, err := strconv.ParseInt(fields[fieldLastUpdate], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse last update: %w", err)
	}

	state := &RateLimitState{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetUnix, 0),
		LastUpdate: time.UnixMilli(lastUnix),
	}
	state.UpdateHealth()

	return state, nil
}

// ParseHeaders extracts the budget from response headers.
// ok is false when the response carries no rate limit headers.
func ParseHeaders(headers http.Header) (remaining int, reset time.Duration, ok bool, err error) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return 0, 0, false, nil
	}

	remaining, err = strconv.Atoi(remainStr)
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return 0, 0, false, errors.New(HeaderReset + " header missing")
	}
	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	return remaining, time.Duration(resetSeconds) * time.Second, true, nil
}

// UpdateFromHeaders parses rate limit headers and updates Redis state.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remaining, reset, ok, err := ParseHeaders(headers)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	now := time.Now()
	state := &RateLimitState{
		Remaining:  remaining,
		ResetAt:    now.Add(reset),
		LastUpdate: now,
	}
	state.UpdateHealth()

	pipe := t.redis.TxPipeline()
	pipe.HSet(ctx, t.key,
		fieldRemaining, remaining,
		fieldResetAt, state.ResetAt.Unix(),
		fieldLastUpdate, now.UnixMilli(),
	)
	// The state means nothing once the window is over.
	pipe.Expire(ctx, t.key, reset+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	rateLimitRemaining.Set(float64(remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("Catalog API rate limit exhausted - requests will be refused until reset")
	case state.NeedsWarning():
		t.logger.Warn().
			Int("remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("Catalog API rate limit running low")
	default:
		t.logger.Debug().
			Int("remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("Catalog API rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on current rate limit state.
// Returns false while the budget is exhausted and the window has not reset.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Catalog API rate limit exhausted - refusing request")

		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	return true, nil
}

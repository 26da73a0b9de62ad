// Package ratelimit tracks the catalog API's advertised request budget.
// It reads the X-RateLimit-Remaining and X-RateLimit-Reset headers, shares
// the state across storefront instances via Redis, and refuses requests
// locally while the budget is exhausted.
package ratelimit

import (
	"time"
)

// Response headers the catalog API uses to advertise its budget.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Thresholds for rate limit decisions.
const (
	// RemainingThresholdCritical blocks requests when remaining falls below this value
	// and the window has not reset yet.
	RemainingThresholdCritical = 1

	// RemainingThresholdWarning logs and counts requests when remaining falls below this value.
	RemainingThresholdWarning = 10
)

// RateLimitState represents the last known upstream budget.
type RateLimitState struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (now + X-RateLimit-Reset seconds).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining is at or above the warning threshold.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be refused until the reset.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsWarning returns true if the budget is low but not exhausted.
func (s *RateLimitState) NeedsWarning() bool {
	return s.Remaining < RemainingThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdWarning
}

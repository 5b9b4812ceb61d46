// Package ratelimit implements TBA rate-limit cooldown tracking and request pacing.
// A 429 response puts the API key into a cooldown window; the window can be shared
// between concurrent runs through Redis so that jobs using the same key back off
// together instead of hammering the API in turn.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRateLimitedCount = "tba:rate_limit:count"
	RedisKeyCooldownUntil    = "tba:rate_limit:cooldown_until"
	RedisKeyLastUpdate       = "tba:rate_limit:last_update"
)

// DefaultStateTTL bounds how long shared state survives in Redis without updates.
const DefaultStateTTL = 24 * time.Hour

// RateLimitState represents the current TBA rate limit state.
type RateLimitState struct {
	// RateLimitedCount is the number of 429 responses observed.
	RateLimitedCount int `json:"rate_limited_count"`

	// CooldownUntil is the earliest time the next request should be sent.
	// Zero when no 429 has been observed.
	CooldownUntil time.Time `json:"cooldown_until"`

	// LastUpdate is the timestamp when this state was last updated.
	LastUpdate time.Time `json:"last_update"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// InCooldown returns true while requests should be held back.
func (s *RateLimitState) InCooldown() bool {
	return s.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the cooldown ends.
// Returns 0 if the cooldown has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.CooldownUntil)
	if duration < 0 {
		return 0
	}
	return duration
}

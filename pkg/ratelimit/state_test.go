package ratelimit

import (
	"testing"
	"time"
)

func TestRateLimitState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *RateLimitState
		maxAge   time.Duration
		expected bool
	}{
		{
			name:     "fresh state",
			state:    &RateLimitState{LastUpdate: time.Now()},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name:     "stale state",
			state:    &RateLimitState{LastUpdate: time.Now().Add(-10 * time.Minute)},
			maxAge:   5 * time.Minute,
			expected: true,
		},
		{
			name:     "just under max age",
			state:    &RateLimitState{LastUpdate: time.Now().Add(-4 * time.Minute)},
			maxAge:   5 * time.Minute,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.state.IsStale(tt.maxAge); result != tt.expected {
				t.Errorf("IsStale() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestRateLimitState_InCooldown(t *testing.T) {
	tests := []struct {
		name          string
		cooldownUntil time.Time
		expected      bool
	}{
		{
			name:          "zero state",
			cooldownUntil: time.Time{},
			expected:      false,
		},
		{
			name:          "cooldown in the future",
			cooldownUntil: time.Now().Add(time.Minute),
			expected:      true,
		},
		{
			name:          "cooldown passed",
			cooldownUntil: time.Now().Add(-time.Second),
			expected:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &RateLimitState{CooldownUntil: tt.cooldownUntil}
			if result := state.InCooldown(); result != tt.expected {
				t.Errorf("InCooldown() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestRateLimitState_TimeUntilReset(t *testing.T) {
	state := &RateLimitState{CooldownUntil: time.Now().Add(-time.Minute)}
	if d := state.TimeUntilReset(); d != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0 for past cooldown", d)
	}

	state = &RateLimitState{CooldownUntil: time.Now().Add(30 * time.Second)}
	d := state.TimeUntilReset()
	if d <= 25*time.Second || d > 30*time.Second {
		t.Errorf("TimeUntilReset() = %v, want ~30s", d)
	}
}

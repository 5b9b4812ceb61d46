package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	tbaRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tba_rate_limited_total",
		Help: "Total number of 429 responses recorded by the rate limit tracker",
	})

	tbaCooldownWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tba_cooldown_waits_total",
		Help: "Total number of requests held back by an active cooldown",
	})

	tbaCooldownRemainingSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tba_cooldown_remaining_seconds",
		Help: "Seconds remaining in the current rate limit cooldown",
	})
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d, returning ctx.Err() if the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Tracker records 429 cooldowns and holds requests back while one is active.
type Tracker struct {
	store  Store
	logger zerolog.Logger
	sleep  SleepFunc
}

// NewTracker creates a new rate limit tracker. A nil store keeps state in memory.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:  store,
		logger: logger,
		sleep:  Sleep,
	}
}

// SetSleeper replaces the wait function (for testing).
func (t *Tracker) SetSleeper(fn SleepFunc) {
	t.sleep = fn
}

// GetState retrieves the current rate limit state. State not updated within
// DefaultStateTTL is reported as empty.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate limit state: %w", err)
	}

	// State left behind by an old run no longer describes the API key.
	if state.IsStale(DefaultStateTTL) {
		return &RateLimitState{}, nil
	}
	return state, nil
}

// RecordRateLimited registers a 429 response and extends the cooldown to
// now+backoff. A cooldown that already ends later is kept.
func (t *Tracker) RecordRateLimited(ctx context.Context, backoff time.Duration) error {
	state, err := t.GetState(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	state.RateLimitedCount++
	if until := now.Add(backoff); until.After(state.CooldownUntil) {
		state.CooldownUntil = until
	}
	state.LastUpdate = now

	if err := t.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save rate limit state: %w", err)
	}

	tbaRateLimitedTotal.Inc()
	tbaCooldownRemainingSeconds.Set(state.TimeUntilReset().Seconds())

	t.logger.Warn().
		Int("rate_limited_count", state.RateLimitedCount).
		Time("cooldown_until", state.CooldownUntil).
		Msg("TBA rate limit hit - cooldown recorded")

	return nil
}

// WaitForCooldown blocks until any active cooldown has passed.
func (t *Tracker) WaitForCooldown(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		return err
	}

	if !state.InCooldown() {
		tbaCooldownRemainingSeconds.Set(0)
		return nil
	}

	wait := state.TimeUntilReset()
	tbaCooldownWaitsTotal.Inc()
	t.logger.Warn().
		Dur("wait_duration", wait).
		Int("rate_limited_count", state.RateLimitedCount).
		Msg("TBA rate limit cooldown active - waiting")

	if err := t.sleep(ctx, wait); err != nil {
		return fmt.Errorf("wait for cooldown: %w", err)
	}

	tbaCooldownRemainingSeconds.Set(0)
	return nil
}

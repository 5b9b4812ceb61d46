package client

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/tba-teams/pkg/ratelimit"
	"github.com/rs/zerolog/log"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per page (including the initial request).
	MaxAttempts int

	// RateLimitBackoff is multiplied by the 1-based attempt number after a 429.
	RateLimitBackoff time.Duration

	// NetworkBackoff is the fixed wait after a transport or decode failure.
	NetworkBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:      3,
		RateLimitBackoff: 60 * time.Second,
		NetworkBackoff:   5 * time.Second,
	}
}

// Backoff returns the wait before the attempt following a failed attempt of
// the given class.
func (c RetryConfig) Backoff(errorClass ErrorClass, attempt int) time.Duration {
	switch errorClass {
	case ErrorClassRateLimit:
		return c.RateLimitBackoff * time.Duration(attempt)
	case ErrorClassNetwork, ErrorClassDecode:
		return c.NetworkBackoff
	default:
		return 0
	}
}

// retryWithBackoff runs fn until it succeeds, fails with a non-retryable
// error, or MaxAttempts is reached. No wait follows the final attempt.
func retryWithBackoff(ctx context.Context, config RetryConfig, sleep ratelimit.SleepFunc, fn func(attempt int) error) error {
	var lastErr error
	var errorClass ErrorClass

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("error_class", string(errorClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		errorClass = classOf(err)

		if !shouldRetry(errorClass) {
			return lastErr
		}

		// If this was the last attempt, don't wait
		if attempt >= config.MaxAttempts {
			break
		}

		backoff := config.Backoff(errorClass, attempt)
		tbaRetriesTotal.WithLabelValues(string(errorClass)).Inc()
		tbaRetryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(backoff.Seconds())

		log.Warn().
			Err(err).
			Str("error_class", string(errorClass)).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		if err := sleep(ctx, backoff); err != nil {
			log.Warn().
				Str("error_class", string(errorClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}
	}

	tbaRetryExhaustedTotal.WithLabelValues(string(errorClass)).Inc()
	log.Warn().
		Str("error_class", string(errorClass)).
		Int("max_attempts", config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, config.MaxAttempts, lastErr)
}

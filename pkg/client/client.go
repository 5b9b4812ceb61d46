// Package client provides the TBA HTTP client used to fetch paginated team
// records, with outcome classification, bounded retry and rate limit handling.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/tba-teams/pkg/ratelimit"
	"github.com/Sternrassler/tba-teams/pkg/teams"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for TBA client operations.
var (
	tbaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tba_requests_total",
		Help: "Total TBA requests by endpoint and status",
	}, []string{"endpoint", "status"})

	tbaRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tba_request_duration_seconds",
		Help:    "TBA request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	tbaErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tba_errors_total",
		Help: "Total TBA errors by class",
	}, []string{"class"})

	tbaRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tba_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	tbaRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tba_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 180},
	}, []string{"error_class"})

	tbaRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tba_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	tbaPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tba_pages_total",
		Help: "Total page fetches by final outcome",
	}, []string{"outcome"})
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 404 and 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a success response whose body is not a team list.
	ErrorClassDecode ErrorClass = "decode"
)

const (
	// DefaultBaseURL is the TBA API v3 root.
	DefaultBaseURL = "https://www.thebluealliance.com/api/v3"

	// AuthHeader carries the TBA read API key.
	AuthHeader = "X-TBA-Auth-Key"

	// DefaultUserAgent identifies this client to TBA.
	DefaultUserAgent = "tba-teams/0.1.0"

	// teamsEndpoint is the metrics label for /teams/{page}.
	teamsEndpoint = "/teams/{page}"
)

// Client is the TBA client.
type Client struct {
	httpClient *http.Client
	tracker    *ratelimit.Tracker
	baseURL    string
	config     Config
	logger     zerolog.Logger
	sleep      ratelimit.SleepFunc
}

// Config holds the client configuration.
type Config struct {
	// APIKey is sent as X-TBA-Auth-Key (REQUIRED)
	APIKey string

	// BaseURL is the API root, without trailing slash
	BaseURL string

	// UserAgent header
	UserAgent string

	// Timeout per HTTP request
	Timeout time.Duration

	// Retry policy per page
	Retry RetryConfig

	// Tracker shares 429 cooldowns between pages and runs (optional)
	Tracker *ratelimit.Tracker
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new TBA client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max_attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	logger := log.With().Str("component", "tba-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tracker: cfg.Tracker,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		config:  cfg,
		logger:  logger,
		sleep:   ratelimit.Sleep,
	}, nil
}

// FetchPage fetches /teams/{page} and classifies the result. Rate limits and
// transient failures are retried per the retry policy and never surface as
// anything other than OutcomeExhausted.
func (c *Client) FetchPage(ctx context.Context, page int) PageResult {
	result := PageResult{Page: page}

	if c.tracker != nil {
		if err := c.tracker.WaitForCooldown(ctx); err != nil {
			if ctx.Err() != nil {
				result.Outcome = OutcomeFatal
				result.Err = fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
				tbaPagesTotal.WithLabelValues(string(result.Outcome)).Inc()
				return result
			}
			c.logger.Warn().Err(err).Int("page", page).Msg("Rate limit cooldown check failed")
		}
	}

	err := retryWithBackoff(ctx, c.config.Retry, c.sleep, func(attempt int) error {
		result.Attempts = attempt

		records, outcome, err := c.doAttempt(ctx, page)

		c.logger.Debug().
			Int("page", page).
			Int("attempt", attempt).
			Str("outcome", string(outcome)).
			Msg("Attempt classified")

		switch outcome {
		case OutcomeSuccess, OutcomeEmpty:
			result.Outcome = outcome
			result.Records = records
			return nil
		case OutcomeRateLimited:
			if c.tracker != nil {
				backoff := c.config.Retry.Backoff(ErrorClassRateLimit, attempt)
				if terr := c.tracker.RecordRateLimited(ctx, backoff); terr != nil {
					c.logger.Warn().Err(terr).Msg("Failed to record rate limit cooldown")
				}
			}
			return err
		case OutcomeTransient, OutcomeFatal:
			return err
		default:
			return fmt.Errorf("unexpected attempt outcome %q", outcome)
		}
	})

	switch {
	case err == nil:
		// Outcome set by the successful attempt
	case errors.Is(err, ErrRetryExhausted):
		result.Outcome = OutcomeExhausted
		result.Err = err
	default:
		result.Outcome = OutcomeFatal
		result.Err = err
	}

	tbaPagesTotal.WithLabelValues(string(result.Outcome)).Inc()
	return result
}

// doAttempt performs a single request and classifies it.
func (c *Client) doAttempt(ctx context.Context, page int) ([]teams.Record, Outcome, error) {
	endpoint := "/teams/" + strconv.Itoa(page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, OutcomeFatal, &APIError{
			ErrorClass: ErrorClassClient,
			Message:    "create request",
			Err:        err,
		}
	}

	req.Header.Set(AuthHeader, c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	tbaRequestDuration.WithLabelValues(teamsEndpoint).Observe(time.Since(startTime).Seconds())

	// Handle network errors
	if err != nil {
		if ctx.Err() != nil {
			return nil, OutcomeFatal, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		tbaErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		tbaRequestsTotal.WithLabelValues(teamsEndpoint, "network_error").Inc()
		return nil, OutcomeTransient, &APIError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	tbaRequestsTotal.WithLabelValues(teamsEndpoint, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No data found is not an error
		io.Copy(io.Discard, resp.Body)
		return nil, OutcomeEmpty, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		tbaErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
		c.logger.Warn().Str("endpoint", endpoint).Msg("TBA rate limit response")
		return nil, OutcomeRateLimited, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassRateLimit,
			Message:    resp.Status,
		}

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			tbaErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return nil, OutcomeTransient, &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassNetwork,
				Message:    "read response body",
				Err:        err,
			}
		}

		var records []teams.Record
		if err := json.Unmarshal(body, &records); err != nil {
			tbaErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
			return nil, OutcomeTransient, &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassDecode,
				Message:    "parse team list",
				Err:        err,
			}
		}

		if len(records) == 0 {
			return nil, OutcomeEmpty, nil
		}
		return records, OutcomeSuccess, nil

	default:
		errClass := classifyStatus(resp.StatusCode)
		tbaErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Error().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("TBA request error")

		io.Copy(io.Discard, resp.Body)
		return nil, OutcomeFatal, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}
}

// classifyStatus categorizes an unexpected HTTP status.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// SetHTTPClient sets a custom HTTP client (recording transport, tests).
// The configured timeout is applied when the given client has none.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client.Timeout == 0 {
		client.Timeout = c.config.Timeout
	}
	c.httpClient = client
}

// SetSleeper replaces the backoff wait function (for testing).
func (c *Client) SetSleeper(fn ratelimit.SleepFunc) {
	c.sleep = fn
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

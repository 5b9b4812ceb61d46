// Package metrics provides the Prometheus registry reference and Pushgateway
// export for the TBA teams fetcher.
// All metrics are defined in their respective packages (client, ratelimit,
// pagination) to maintain modularity and avoid circular dependencies.
//
// The fetcher is a batch job, so metrics are pushed once at the end of a run
// instead of being scraped.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job label used by the fetcher.
const DefaultJob = "tba_fetch_teams"

// ErrNoGateway is returned by Push when no Pushgateway URL is configured.
var ErrNoGateway = errors.New("pushgateway url is empty")

// Push sends every metric in gatherer to the Pushgateway at url, grouped by
// job and run_id. A nil gatherer pushes the default registry, where every
// package registers its metrics via promauto.
func Push(ctx context.Context, url, job, runID string, gatherer prometheus.Gatherer) error {
	if url == "" {
		return ErrNoGateway
	}
	if job == "" {
		job = DefaultJob
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	pusher := push.New(url, job).Gatherer(gatherer)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - tba_rate_limited_total (Counter): 429 responses recorded by the tracker
//   - tba_cooldown_waits_total (Counter): Requests delayed by a shared cooldown
//   - tba_cooldown_remaining_seconds (Gauge): Seconds left in the current cooldown
//
// Request Metrics (pkg/client):
//   - tba_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - tba_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - tba_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//   - tba_pages_total{outcome} (Counter): Page results by outcome
//
// Retry Metrics (pkg/client):
//   - tba_retries_total{error_class} (Counter): Retry attempts by error class
//   - tba_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - tba_retry_exhausted_total{error_class} (Counter): Pages that exhausted max attempts
//
// Pagination Metrics (pkg/pagination):
//   - tba_records_fetched_total (Counter): Team records collected
//   - tba_pages_skipped_total (Counter): Pages skipped after exhausted retries
//
// Example Prometheus Queries:
//
//   # Skipped pages per run
//   tba_pages_skipped_total
//
//   # Rate limited share of requests
//   sum(tba_requests_total{status="429"}) / sum(tba_requests_total)
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(tba_request_duration_seconds_bucket[5m]))

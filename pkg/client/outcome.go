package client

import (
	"github.com/Sternrassler/tba-teams/pkg/teams"
)

// Outcome classifies the result of a request attempt or of a whole page fetch.
type Outcome string

const (
	// OutcomeSuccess is a 200 response carrying at least one record.
	OutcomeSuccess Outcome = "success"

	// OutcomeEmpty is a 404 or an empty array: there are no more pages.
	OutcomeEmpty Outcome = "empty"

	// OutcomeRateLimited is a single 429 attempt. Never returned by FetchPage.
	OutcomeRateLimited Outcome = "rate_limited"

	// OutcomeTransient is a single attempt that failed at the transport or
	// decode level. Never returned by FetchPage.
	OutcomeTransient Outcome = "transient"

	// OutcomeExhausted means every attempt for the page was rate limited or transient.
	OutcomeExhausted Outcome = "exhausted"

	// OutcomeFatal is a non-retryable failure (unexpected status, cancelled context).
	OutcomeFatal Outcome = "fatal"
)

// PageResult is the classified result of fetching one page.
type PageResult struct {
	// Page is the zero-based page index.
	Page int

	// Outcome is one of OutcomeSuccess, OutcomeEmpty, OutcomeExhausted or OutcomeFatal.
	Outcome Outcome

	// Records holds the decoded page for OutcomeSuccess.
	Records []teams.Record

	// Attempts is the number of HTTP requests made for this page.
	Attempts int

	// Err is set for OutcomeExhausted and OutcomeFatal.
	Err error
}

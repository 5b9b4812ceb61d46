package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/tba-teams/pkg/client"
	"github.com/Sternrassler/tba-teams/pkg/ratelimit"
	"github.com/Sternrassler/tba-teams/pkg/teams"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	tbaRecordsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tba_records_fetched_total",
		Help: "Total number of team records collected by the pagination driver",
	})

	tbaPagesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tba_pages_skipped_total",
		Help: "Total number of pages skipped after exhausting retries",
	})
)

// StopReason explains why pagination ended.
type StopReason string

const (
	// StopEmptyPage is the normal end of data.
	StopEmptyPage StopReason = "empty_page"

	// StopSafetyCeiling means a skipped page pushed the counter past MaxPages.
	StopSafetyCeiling StopReason = "safety_ceiling"

	// StopHardLimit means HardPageLimit iterations ran without an empty page.
	StopHardLimit StopReason = "hard_limit"
)

// Config holds driver configuration.
type Config struct {
	// MaxPages is the safety ceiling applied after a skipped page
	MaxPages int

	// HardPageLimit bounds total iterations regardless of outcome
	HardPageLimit int

	// PageDelay spaces consecutive requests
	PageDelay time.Duration
}

// DefaultConfig returns the default driver configuration.
func DefaultConfig() Config {
	return Config{
		MaxPages:      21,
		HardPageLimit: 1000,
		PageDelay:     ratelimit.DefaultPageDelay,
	}
}

// PageFetcher fetches and classifies a single page. *client.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) client.PageResult
}

// Result is the outcome of a full pagination run.
type Result struct {
	// Records accumulated from all successful pages, in page order
	Records []teams.Record

	// Pages is the number of pages requested
	Pages int

	// PagesFetched is the number of pages that returned data
	PagesFetched int

	// SkippedPages lists page indexes whose retries were exhausted
	SkippedPages []int

	// StopReason explains why the loop ended
	StopReason StopReason
}

// Driver walks pages sequentially until the data set ends.
type Driver struct {
	fetcher PageFetcher
	pacer   *ratelimit.Pacer
	config  Config
}

// NewDriver creates a new pagination driver.
func NewDriver(fetcher PageFetcher, config Config) *Driver {
	defaults := DefaultConfig()
	if config.MaxPages <= 0 {
		config.MaxPages = defaults.MaxPages
	}
	if config.HardPageLimit <= 0 {
		config.HardPageLimit = defaults.HardPageLimit
	}
	if config.PageDelay < 0 {
		config.PageDelay = 0
	}

	return &Driver{
		fetcher: fetcher,
		pacer:   ratelimit.NewPacer(config.PageDelay),
		config:  config,
	}
}

// FetchAll fetches pages from 0 until an empty page or a ceiling is reached.
// It returns an error only for fatal page outcomes; the partial result is
// returned alongside so callers can report progress.
func (d *Driver) FetchAll(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	log.Info().
		Int("max_pages", d.config.MaxPages).
		Int("hard_page_limit", d.config.HardPageLimit).
		Msg("Fetching teams from TBA API")

pages:
	for page := 0; ; {
		if page >= d.config.HardPageLimit {
			result.StopReason = StopHardLimit
			log.Warn().
				Int("page", page).
				Int("hard_page_limit", d.config.HardPageLimit).
				Msg("Hard page limit reached without an empty page")
			break pages
		}

		if err := d.pacer.Wait(ctx); err != nil {
			return result, fmt.Errorf("page %d: %w", page, err)
		}

		pageResult := d.fetcher.FetchPage(ctx, page)
		result.Pages++

		switch pageResult.Outcome {
		case client.OutcomeSuccess:
			result.Records = append(result.Records, pageResult.Records...)
			result.PagesFetched++
			tbaRecordsFetchedTotal.Add(float64(len(pageResult.Records)))

			log.Info().
				Int("page", page).
				Int("teams", len(pageResult.Records)).
				Int("attempts", pageResult.Attempts).
				Msg("Fetched page")

			page++

		case client.OutcomeEmpty:
			result.StopReason = StopEmptyPage
			log.Info().Int("page", page).Msg("Done (no more pages)")
			break pages

		case client.OutcomeExhausted:
			result.SkippedPages = append(result.SkippedPages, page)
			tbaPagesSkippedTotal.Inc()

			log.Warn().
				Err(pageResult.Err).
				Int("page", page).
				Int("attempts", pageResult.Attempts).
				Msg("Page failed after retries, skipping")

			page++
			if page >= d.config.MaxPages {
				result.StopReason = StopSafetyCeiling
				log.Warn().
					Int("page", page).
					Int("max_pages", d.config.MaxPages).
					Msg("Safety ceiling reached, stopping pagination")
				break pages
			}

		case client.OutcomeFatal:
			log.Error().
				Err(pageResult.Err).
				Int("page", page).
				Msg("Page fetch failed")
			return result, fmt.Errorf("page %d: %w", page, pageResult.Err)

		default:
			return result, fmt.Errorf("page %d: unexpected outcome %q", page, pageResult.Outcome)
		}
	}

	log.Info().
		Int("teams", len(result.Records)).
		Int("pages", result.Pages).
		Int("skipped", len(result.SkippedPages)).
		Str("stop_reason", string(result.StopReason)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return result, nil
}

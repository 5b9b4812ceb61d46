package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/tba-teams/pkg/client"
	"github.com/Sternrassler/tba-teams/pkg/teams"
)

// scriptedFetcher returns pre-defined outcomes per page.
type scriptedFetcher struct {
	pages    map[int]client.PageResult
	fallback client.PageResult
	calls    []int
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, page int) client.PageResult {
	f.calls = append(f.calls, page)
	if r, ok := f.pages[page]; ok {
		r.Page = page
		return r
	}
	r := f.fallback
	r.Page = page
	return r
}

func records(numbers ...int64) []teams.Record {
	out := make([]teams.Record, 0, len(numbers))
	for _, n := range numbers {
		n := n
		out = append(out, teams.Record{TeamNumber: &n})
	}
	return out
}

func success(numbers ...int64) client.PageResult {
	return client.PageResult{Outcome: client.OutcomeSuccess, Records: records(numbers...), Attempts: 1}
}

func exhausted() client.PageResult {
	return client.PageResult{Outcome: client.OutcomeExhausted, Attempts: 3, Err: client.ErrRetryExhausted}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PageDelay = 0
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxPages != 21 {
		t.Errorf("MaxPages = %d, want 21", cfg.MaxPages)
	}
	if cfg.HardPageLimit != 1000 {
		t.Errorf("HardPageLimit = %d, want 1000", cfg.HardPageLimit)
	}
	if cfg.PageDelay <= 0 {
		t.Errorf("PageDelay = %v, want > 0", cfg.PageDelay)
	}
}

func TestNewDriver_AppliesDefaults(t *testing.T) {
	d := NewDriver(&scriptedFetcher{}, Config{PageDelay: -1})

	if d.config.MaxPages != 21 {
		t.Errorf("MaxPages = %d, want 21", d.config.MaxPages)
	}
	if d.config.HardPageLimit != 1000 {
		t.Errorf("HardPageLimit = %d, want 1000", d.config.HardPageLimit)
	}
	if d.config.PageDelay != 0 {
		t.Errorf("PageDelay = %v, want 0", d.config.PageDelay)
	}
}

func TestFetchAll_StopsOnEmptyPage(t *testing.T) {
	fetcher := &scriptedFetcher{
		pages: map[int]client.PageResult{
			0: success(1, 2),
			1: success(3, 4),
		},
		fallback: client.PageResult{Outcome: client.OutcomeEmpty, Attempts: 1},
	}

	result, err := NewDriver(fetcher, testConfig()).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if len(fetcher.calls) != 3 {
		t.Errorf("calls = %v, want 3 calls", fetcher.calls)
	}
	if len(result.Records) != 4 {
		t.Errorf("len(Records) = %d, want 4", len(result.Records))
	}
	for i, r := range result.Records {
		if *r.TeamNumber != int64(i+1) {
			t.Errorf("Records[%d] = %d, want %d (page order)", i, *r.TeamNumber, i+1)
		}
	}
	if result.StopReason != StopEmptyPage {
		t.Errorf("StopReason = %q, want %q", result.StopReason, StopEmptyPage)
	}
	if result.Pages != 3 || result.PagesFetched != 2 {
		t.Errorf("Pages = %d, PagesFetched = %d, want 3 and 2", result.Pages, result.PagesFetched)
	}
}

func TestFetchAll_SkipsExhaustedPages(t *testing.T) {
	fetcher := &scriptedFetcher{
		pages: map[int]client.PageResult{
			0: success(1),
			1: exhausted(),
			2: success(2),
		},
		fallback: client.PageResult{Outcome: client.OutcomeEmpty},
	}

	result, err := NewDriver(fetcher, testConfig()).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if len(result.Records) != 2 {
		t.Errorf("len(Records) = %d, want 2", len(result.Records))
	}
	if len(result.SkippedPages) != 1 || result.SkippedPages[0] != 1 {
		t.Errorf("SkippedPages = %v, want [1]", result.SkippedPages)
	}
	if result.StopReason != StopEmptyPage {
		t.Errorf("StopReason = %q, want %q", result.StopReason, StopEmptyPage)
	}
}

func TestFetchAll_SafetyCeiling(t *testing.T) {
	fetcher := &scriptedFetcher{fallback: exhausted()}

	result, err := NewDriver(fetcher, testConfig()).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	// Pages 0..20 are attempted, then the counter passes the ceiling
	if len(fetcher.calls) != 21 {
		t.Errorf("calls = %d, want 21", len(fetcher.calls))
	}
	if result.StopReason != StopSafetyCeiling {
		t.Errorf("StopReason = %q, want %q", result.StopReason, StopSafetyCeiling)
	}
	if len(result.Records) != 0 {
		t.Errorf("len(Records) = %d, want 0", len(result.Records))
	}
}

func TestFetchAll_SafetyCeilingKeepsAccumulatedRecords(t *testing.T) {
	fetcher := &scriptedFetcher{
		pages: map[int]client.PageResult{
			0: success(1, 2, 3),
		},
		fallback: exhausted(),
	}

	cfg := testConfig()
	cfg.MaxPages = 5

	result, err := NewDriver(fetcher, cfg).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if len(fetcher.calls) != 5 {
		t.Errorf("calls = %d, want 5", len(fetcher.calls))
	}
	if len(result.Records) != 3 {
		t.Errorf("len(Records) = %d, want 3", len(result.Records))
	}
	if len(result.SkippedPages) != 4 {
		t.Errorf("SkippedPages = %v, want 4 entries", result.SkippedPages)
	}
}

func TestFetchAll_HardLimitTerminatesEndlessAPI(t *testing.T) {
	fetcher := &scriptedFetcher{fallback: success(1)}

	cfg := testConfig()
	cfg.HardPageLimit = 50

	result, err := NewDriver(fetcher, cfg).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if len(fetcher.calls) != 50 {
		t.Errorf("calls = %d, want 50", len(fetcher.calls))
	}
	if result.StopReason != StopHardLimit {
		t.Errorf("StopReason = %q, want %q", result.StopReason, StopHardLimit)
	}
	if len(result.Records) != 50 {
		t.Errorf("len(Records) = %d, want 50", len(result.Records))
	}
}

func TestFetchAll_FatalAborts(t *testing.T) {
	fatalErr := &client.APIError{StatusCode: 401, ErrorClass: client.ErrorClassClient, Message: "401 Unauthorized"}
	fetcher := &scriptedFetcher{
		pages: map[int]client.PageResult{
			0: success(1, 2),
			1: {Outcome: client.OutcomeFatal, Err: fatalErr, Attempts: 1},
		},
		fallback: success(3),
	}

	result, err := NewDriver(fetcher, testConfig()).FetchAll(context.Background())

	if !errors.Is(err, fatalErr) {
		t.Fatalf("FetchAll() error = %v, want wrapped fatal error", err)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("calls = %v, want stop after page 1", fetcher.calls)
	}
	if result == nil || len(result.Records) != 2 {
		t.Errorf("partial result should carry 2 records, got %+v", result)
	}
}

func TestFetchAll_CancelledContext(t *testing.T) {
	fetcher := &scriptedFetcher{fallback: success(1)}

	cfg := testConfig()
	cfg.PageDelay = DefaultConfig().PageDelay

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDriver(fetcher, cfg).FetchAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FetchAll() error = %v, want context.Canceled", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("calls = %v, want none", fetcher.calls)
	}
}

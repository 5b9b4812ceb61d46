package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Sternrassler/tba-teams/internal/config"
	"github.com/Sternrassler/tba-teams/pkg/client"
	"github.com/Sternrassler/tba-teams/pkg/logging"
	"github.com/Sternrassler/tba-teams/pkg/metrics"
	"github.com/Sternrassler/tba-teams/pkg/pagination"
	"github.com/Sternrassler/tba-teams/pkg/ratelimit"
	"github.com/Sternrassler/tba-teams/pkg/teams"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"
)

var tbaTeamsWritten = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "tba_teams_written",
	Help: "Number of teams in the last written table",
})

// ErrNoRecords is returned when pagination finished without a single team.
var ErrNoRecords = errors.New("no teams fetched")

func run(ctx context.Context, cmd *cobra.Command, opts *options, getenv func(string) string) error {
	start := time.Now()
	runID := uuid.NewString()

	getenv, err := withDotenv(opts.envFile, cmd.Flags().Changed("env-file"), getenv)
	if err != nil {
		return err
	}

	apiKey, err := config.ResolveAPIKey(getenv)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(),
			"Error: %s not found in environment variables or %s.\nCreate a %s file with:\n  %s=your_api_key_here\nGet a read key at https://www.thebluealliance.com/account\n",
			config.EnvAPIKey, opts.envFile, opts.envFile, config.EnvAPIKey)
		return err
	}

	cfg, err := config.Load(opts.configPath, getenv)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Pretty,
		Output: cmd.ErrOrStderr(),
		RunID:  runID,
	})
	logger := logging.NewLogger("fetch-teams")

	logger.Debug().
		Str("config_file", cfg.Path).
		Str("base_url", cfg.BaseURL).
		Str("output", cfg.Output).
		Msg("Configuration loaded")

	if cfg.PushgatewayURL != "" {
		defer pushMetrics(cfg.PushgatewayURL, runID, logger)
	}

	store, closeStore := newStore(ctx, cfg.RedisURL, logger)
	defer closeStore()

	clientCfg := client.DefaultConfig(apiKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.Timeout = cfg.Timeout
	clientCfg.Retry = cfg.RetryConfig()
	clientCfg.Tracker = ratelimit.NewTracker(store, logging.NewLogger("ratelimit"))

	tbaClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create TBA client: %w", err)
	}

	if opts.record != "" {
		httpClient, stopRecorder, err := newRecordingClient(opts.record)
		if err != nil {
			return err
		}
		defer stopRecorder()
		tbaClient.SetHTTPClient(httpClient)
		logger.Info().Str("cassette", opts.record).Msg("Recording API responses")
	}

	result, err := pagination.NewDriver(tbaClient, cfg.DriverConfig()).FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch teams: %w", err)
	}

	if len(result.Records) == 0 {
		return ErrNoRecords
	}

	table := teams.Build(result.Records)
	if err := teams.WriteFile(cfg.Output, table); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Output, err)
	}
	tbaTeamsWritten.Set(float64(len(table)))

	logger.Info().
		Int("teams", len(table)).
		Int("records", len(result.Records)).
		Ints("skipped_pages", result.SkippedPages).
		Str("output", cfg.Output).
		Dur("duration", time.Since(start)).
		Msg("Saved teams")

	return nil
}

// withDotenv layers the variables of a .env file under getenv. Variables
// already set in the environment win. Only an explicitly requested file
// must exist.
func withDotenv(path string, explicit bool, getenv func(string) string) (func(string) string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return getenv, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return vars[key]
	}, nil
}

// newStore connects to Redis when a URL is configured. An unreachable Redis
// falls back to in-process state.
func newStore(ctx context.Context, redisURL string, logger zerolog.Logger) (ratelimit.Store, func()) {
	noop := func() {}
	if redisURL == "" {
		return ratelimit.NewMemoryStore(), noop
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid REDIS_URL, using in-memory rate limit state")
		return ratelimit.NewMemoryStore(), noop
	}
	redisOpts.DialTimeout = 2 * time.Second

	rdb := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", redisOpts.Addr).Msg("Redis unavailable, using in-memory rate limit state")
		rdb.Close()
		return ratelimit.NewMemoryStore(), noop
	}

	logger.Info().Str("addr", redisOpts.Addr).Msg("Sharing rate limit state via Redis")
	return ratelimit.NewRedisStore(rdb, ratelimit.DefaultStateTTL), func() { rdb.Close() }
}

// newRecordingClient returns an HTTP client backed by a go-vcr cassette.
// The API key never reaches the cassette file.
func newRecordingClient(cassetteName string) (*http.Client, func(), error) {
	r, err := recorder.NewWithOptions(&recorder.Options{
		CassetteName:       cassetteName,
		Mode:               recorder.ModeReplayWithNewEpisodes,
		SkipRequestLatency: true,
		RealTransport:      http.DefaultTransport,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("set up go-vcr recording: %w", err)
	}

	r.AddHook(func(i *cassette.Interaction) error {
		i.Request.Headers.Del(client.AuthHeader)
		return nil
	}, recorder.AfterCaptureHook)
	r.SetReplayableInteractions(true)

	stop := func() {
		if err := r.Stop(); err != nil {
			log.Warn().Err(err).Str("cassette", cassetteName).Msg("Failed to save cassette")
		}
	}
	return r.GetDefaultClient(), stop, nil
}

// pushMetrics is best effort; a failed push never fails the run.
func pushMetrics(url, runID string, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metrics.Push(ctx, url, metrics.DefaultJob, runID, nil); err != nil {
		logger.Warn().Err(err).Msg("Failed to push metrics")
		return
	}
	logger.Debug().Str("pushgateway", url).Msg("Pushed metrics")
}

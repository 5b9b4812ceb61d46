// Package logging sets up the zerolog logger shared by the fetcher packages.
//
// Output is one JSON object per line on the configured writer, or a
// zerolog.ConsoleWriter when Pretty is set. Every entry carries a timestamp
// and, once Setup received one, the run_id of the fetch.
//
// Fields used across packages:
//   - component: set by NewLogger (fetch-teams, tba-client, ratelimit)
//   - page, attempt: pagination position and 1-based attempt number
//   - status_code, error_class: HTTP status and client.ErrorClass
//   - backoff, wait_duration: time spent before the next request
//   - teams: number of team records
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLevel is used when neither LOG_LEVEL nor --debug is given.
const DefaultLevel = "info"

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn (warning) or error.
	Level string

	// Pretty switches from JSON lines to console output.
	Pretty bool

	// Output receives log lines (default: os.Stderr).
	Output io.Writer

	// RunID is attached to every entry when set.
	RunID string
}

// ParseLevel maps a level name to its zerolog level. Names are case insensitive.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.InfoLevel, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", level)
}

// Setup installs the global logger and returns it. An unknown level logs at info.
func Setup(cfg Config) zerolog.Logger {
	level, _ := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true}
	}

	fields := zerolog.New(out).With().Timestamp()
	if cfg.RunID != "" {
		fields = fields.Str("run_id", cfg.RunID)
	}

	log.Logger = fields.Logger()
	return log.Logger
}

// NewLogger derives a logger tagged with component from the global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

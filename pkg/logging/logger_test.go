package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// entries decodes JSON log lines.
func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q (%v)", scanner.Text(), err)
		}
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{input: "debug", want: zerolog.DebugLevel},
		{input: "INFO", want: zerolog.InfoLevel},
		{input: "warn", want: zerolog.WarnLevel},
		{input: " warning ", want: zerolog.WarnLevel},
		{input: "error", want: zerolog.ErrorLevel},
		{input: "trace", want: zerolog.InfoLevel, wantErr: true},
		{input: "", want: zerolog.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetup_JSONEntryFields(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: DefaultLevel, Output: buf, RunID: "3f6c1e2a"})

	logger := NewLogger("fetch-teams")
	logger.Info().Int("page", 4).Int("teams", 500).Msg("Fetched page")

	got := entries(t, buf)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}

	entry := got[0]
	want := map[string]any{
		"level":     "info",
		"component": "fetch-teams",
		"run_id":    "3f6c1e2a",
		"message":   "Fetched page",
		"page":      float64(4),
		"teams":     float64(500),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%q] = %v, want %v", k, entry[k], v)
		}
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry has no timestamp")
	}
}

func TestSetup_NoRunID(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: DefaultLevel, Output: buf})

	logger := NewLogger("ratelimit")
	logger.Warn().Msg("TBA rate limit hit - cooldown recorded")

	got := entries(t, buf)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if _, ok := got[0]["run_id"]; ok {
		t.Errorf("run_id should be absent, got %v", got[0]["run_id"])
	}
}

func TestSetup_PrettyConsoleOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: DefaultLevel, Pretty: true, Output: buf, RunID: "run-7"})

	logger := NewLogger("fetch-teams")
	logger.Info().Str("output", "src/lib/teams.json").Msg("Saved teams")

	line := buf.String()
	if strings.HasPrefix(strings.TrimSpace(line), "{") {
		t.Fatalf("pretty output should not be JSON, got %q", line)
	}
	for _, part := range []string{"INF", "Saved teams", "output=src/lib/teams.json", "run_id=run-7"} {
		if !strings.Contains(line, part) {
			t.Errorf("console line %q should contain %q", line, part)
		}
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{level: "debug", want: []string{"Attempt classified", "Fetched page", "Retrying request after backoff", "Page fetch failed"}},
		{level: "info", want: []string{"Fetched page", "Retrying request after backoff", "Page fetch failed"}},
		{level: "warn", want: []string{"Retrying request after backoff", "Page fetch failed"}},
		{level: "error", want: []string{"Page fetch failed"}},
		{level: "bogus", want: []string{"Fetched page", "Retrying request after backoff", "Page fetch failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			Setup(Config{Level: tt.level, Output: buf})

			logger := NewLogger("tba-client")
			logger.Debug().Msg("Attempt classified")
			logger.Info().Msg("Fetched page")
			logger.Warn().Msg("Retrying request after backoff")
			logger.Error().Msg("Page fetch failed")

			got := entries(t, buf)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d: %v", len(got), len(tt.want), got)
			}
			for i, msg := range tt.want {
				if got[i]["message"] != msg {
					t.Errorf("entry %d message = %v, want %q", i, got[i]["message"], msg)
				}
			}
		})
	}
}

func TestSetup_NilOutput(t *testing.T) {
	logger := Setup(Config{Level: "error"})
	logger.Debug().Msg("discarded")
}

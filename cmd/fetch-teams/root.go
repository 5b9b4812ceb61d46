package main

import (
	"github.com/Sternrassler/tba-teams/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// options holds the command line flags. Flags override the config file and
// the environment, but only when set explicitly.
type options struct {
	configPath string
	envFile    string
	output     string
	baseURL    string
	maxPages   int
	debug      bool
	pretty     bool
	record     string
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "fetch-teams",
		Short: "Fetch all FRC teams from The Blue Alliance",
		Long: `
Walks the paginated /teams/{page} endpoint of The Blue Alliance API v3 and writes
a minified {"<team_number>":{"name":"<nickname>"}} table to disk.

The read key is taken from TBA_API_KEY, either exported or listed in a .env file.
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.Context(), cmd, opts, getenv)
			if err != nil {
				log.Error().Err(err).Msg("fetch-teams failed")
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file location (default: "+config.DefaultConfigPath+", respects "+config.EnvConfigPath+")")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file read for "+config.EnvAPIKey+" and other variables; the environment wins")
	flags.StringVarP(&opts.output, "output", "o", config.DefaultOutput, "where to write the team table")
	flags.StringVar(&opts.baseURL, "base-url", "", "TBA API root (default: "+config.EnvBaseURL+" or the public API)")
	flags.IntVar(&opts.maxPages, "max-pages", 0, "safety ceiling for page indexes after a skipped page")
	flags.BoolVar(&opts.debug, "debug", false, "display debug output")
	flags.BoolVar(&opts.pretty, "pretty", false, "human readable console logs instead of JSON")
	flags.StringVar(&opts.record, "record", "", "record and replay API responses with go-vcr under this cassette name")

	return cmd
}

// applyFlags copies explicitly set flags over cfg.
func (o *options) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = o.output
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = o.maxPages
	}
	if o.debug {
		cfg.LogLevel = "debug"
	}
	if o.pretty {
		cfg.Pretty = true
	}
}

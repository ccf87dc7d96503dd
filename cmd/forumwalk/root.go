package main

import (
	"fmt"
	"os"

	"github.com/entrhq/forumwalk/pkg/config"
	"github.com/entrhq/forumwalk/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const appName = "forumwalk"

// options holds the flag values shared by the commands.
type options struct {
	configFile string
	logLevel   string
	logDir     string

	headless   bool
	noBrowse   bool
	maxTopics  int
	minPages   int
	maxPages   int
	seed       int64
	summaryDir string
}

// NewRootCmd builds the command tree. Without a subcommand it runs the
// daily job.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(version, &options{})
}

func newRootCmd(version string, o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Log in to a Discourse forum and read topics at a human pace",
		Long:          "forumwalk logs in to a Discourse forum, reads a random sample of topics page by page and pushes a status message.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd, o)
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(appName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&o.configFile, "config", "", "path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level: quiet, normal, verbose or debug")
	cmd.PersistentFlags().StringVar(&o.logDir, "log-dir", "", "directory for the per-run log file")
	addRunFlags(cmd.Flags(), o)

	cmd.AddCommand(
		NewRunCmd(o),
		NewConnectCmd(o),
		NewVersionCmd(version),
	)
	return cmd
}

func addRunFlags(fs *pflag.FlagSet, o *options) {
	fs.BoolVar(&o.headless, "headless", true, "run Chromium without a window")
	fs.BoolVar(&o.noBrowse, "no-browse", false, "log in and notify without browsing topics")
	fs.IntVar(&o.maxTopics, "max-topics", 0, "maximum number of topics to visit")
	fs.IntVar(&o.minPages, "min-pages", 0, "minimum reply pages per topic")
	fs.IntVar(&o.maxPages, "max-pages", 0, "maximum reply pages per topic")
	fs.Int64Var(&o.seed, "seed", 0, "random seed (0 seeds from the clock)")
	fs.StringVar(&o.summaryDir, "summary-dir", "", "write run.json and summary.md to this directory")
}

// loadConfig layers defaults, the YAML file, the environment and the flags
// that were set explicitly, then validates the result.
func loadConfig(cmd *cobra.Command, o *options, lookup config.LookupFunc) (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("log-dir") {
		cfg.Logging.Dir = o.logDir
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = o.headless
	}
	if flags.Changed("no-browse") {
		cfg.BrowseEnabled = !o.noBrowse
	}
	if flags.Changed("max-topics") {
		cfg.MaxTopics = o.maxTopics
	}
	if flags.Changed("min-pages") {
		cfg.MinPages = o.minPages
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = o.maxPages
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if flags.Changed("summary-dir") {
		cfg.SummaryDir = o.summaryDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates the root logger. A log file that cannot be opened is
// reported and logging continues on the console.
func newLogger(cmd *cobra.Command, cfg *config.Config) *logging.Logger {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	log, err := logging.New(appName, logging.Options{
		Level:   level,
		Console: cmd.OutOrStdout(),
		Dir:     cfg.Logging.Dir,
		Color:   true,
	})
	if err != nil {
		log.Warnf("file logging disabled: %v", err)
	}
	if path := log.LogPath(); path != "" {
		log.Debugf("writing log to %s", path)
	}
	return log
}

// NewVersionCmd prints the version.
func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
		},
	}
}

package main

import (
	"os"

	"github.com/entrhq/forumwalk/pkg/runner"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in, browse topics and send the status notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd, o)
		},
	}
	addRunFlags(cmd.Flags(), o)
	return cmd
}

func runWalk(cmd *cobra.Command, o *options) error {
	cfg, err := loadConfig(cmd, o, os.LookupEnv)
	if err != nil {
		return err
	}

	log := newLogger(cmd, cfg)
	defer log.Close()

	deps, err := runner.NewDeps(cfg, log)
	if err != nil {
		return err
	}

	summary, runErr := runner.New(cfg, deps, log).Run(cmd.Context())
	if cfg.SummaryDir != "" && summary != nil {
		if err := runner.NewArtifactWriter(cfg.SummaryDir).WriteAll(summary); err != nil {
			log.Warnf("failed to write run summary: %v", err)
		}
	}
	return runErr
}

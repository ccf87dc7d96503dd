package main

import (
	"fmt"
	"os"

	"github.com/entrhq/forumwalk/pkg/forum"
	"github.com/entrhq/forumwalk/pkg/runner"
	"github.com/spf13/cobra"
)

// NewConnectCmd creates the connect command.
func NewConnectCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Log in and print the connect requirements table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			rows, err := runner.New(cfg, deps, log).Connect(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), forum.RenderConnect(rows))
			return nil
		},
	}
}

// Package main provides forumwalk, a scheduled job that logs in to a
// Discourse forum, reads a sample of topics at a human pace and reports
// the result to push channels.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/forumwalk/pkg/config"
)

// Version is overwritten at build time using -ldflags.
var Version = "dev"

const credentialsHint = "Please set LINUXDO_USERNAME/LINUXDO_PASSWORD (or USERNAME/PASSWORD)"

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	err := NewRootCmd(Version).ExecuteContext(ctx)
	cancel()
	if err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			fmt.Fprintln(os.Stderr, credentialsHint)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

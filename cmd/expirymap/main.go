// Package main is the entry point for the expirymap binary. It runs a
// load harness against one of two expiring maps:
//
//   - rotating: fixed buckets, rotated from the caller's side
//   - sliding:  per-key timeout with a reaper owned by the map
//
// Dependencies are assembled via Google Wire; see wire.go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otterscale/expirymap/internal/cmd"
	"github.com/otterscale/expirymap/internal/cmd/harness"
	"github.com/otterscale/expirymap/internal/config"
	"github.com/otterscale/expirymap/internal/core"
)

// version is injected at build time via -ldflags
// (e.g. -ldflags "-X main.version=v1.2.3").
var version = "devel"

func main() {
	// Cancel on SIGINT (Ctrl+C) or SIGTERM (container runtime).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// Cobra is configured with SilenceErrors: true, so we
		// print the error here for consistent formatting.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires all dependencies and executes the root Cobra command.
func run(ctx context.Context) error {
	rootCmd, cleanup, err := wireCmd()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	return rootCmd.ExecuteContext(ctx)
}

// newCmd is a Wire provider that constructs the root Cobra command and
// registers the rotating and sliding subcommands. Options shared by
// both subcommands are bound once as persistent flags.
func newCmd(conf *config.Config) (*cobra.Command, error) {
	c := &cobra.Command{
		Use:           "expirymap",
		Short:         "Load harness for rotating and sliding expiry maps",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := conf.BindFlags(c.PersistentFlags(), config.CommonOptions); err != nil {
		return nil, err
	}

	v := core.Version(version)
	newRunner := func() (*harness.Runner, func(), error) {
		return wireRunner(v)
	}

	rotatingCmd, err := cmd.NewRotatingCommand(conf, newRunner)
	if err != nil {
		return nil, err
	}

	slidingCmd, err := cmd.NewSlidingCommand(conf, newRunner)
	if err != nil {
		return nil, err
	}

	c.AddCommand(rotatingCmd, slidingCmd)

	return c, nil
}

package cmd

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/spf13/cobra"

	"github.com/otterscale/expirymap/internal/cmd/harness"
	"github.com/otterscale/expirymap/internal/config"
	"github.com/otterscale/expirymap/internal/core"
)

func newTestRunner() (*harness.Runner, func(), error) {
	h, cleanup, err := harness.NewHandler(core.Version("test"))
	if err != nil {
		return nil, nil, err
	}
	return harness.NewRunner(h), cleanup, nil
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()

	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(context.Background())
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	t.Chdir(t.TempDir())
	conf, err := config.New()
	if err != nil {
		t.Fatalf("config.New() error = %v", err)
	}
	return conf
}

func TestNewRotatingCommand_FlagsReachRunner(t *testing.T) {
	conf := newTestConfig(t)

	cmd, err := NewRotatingCommand(conf, newTestRunner)
	if err != nil {
		t.Fatalf("NewRotatingCommand() error = %v", err)
	}

	err = execute(t, cmd, "--buckets=1")
	var invalid *core.ErrInvalidInput
	if !errors.As(err, &invalid) || invalid.Field != "numBuckets" {
		t.Fatalf("execute() error = %v, want invalid numBuckets", err)
	}
}

func TestNewSlidingCommand_FlagsReachRunner(t *testing.T) {
	conf := newTestConfig(t)

	cmd, err := NewSlidingCommand(conf, newTestRunner)
	if err != nil {
		t.Fatalf("NewSlidingCommand() error = %v", err)
	}

	err = execute(t, cmd, "--expiration=0s")
	var invalid *core.ErrInvalidInput
	if !errors.As(err, &invalid) || invalid.Field != "expiration" {
		t.Fatalf("execute() error = %v, want invalid expiration", err)
	}
}

func TestCommand_InjectorFailure(t *testing.T) {
	conf := newTestConfig(t)
	errInject := errors.New("inject failed")

	cmd, err := NewSlidingCommand(conf, func() (*harness.Runner, func(), error) {
		return nil, nil, errInject
	})
	if err != nil {
		t.Fatalf("NewSlidingCommand() error = %v", err)
	}

	if err := execute(t, cmd); !errors.Is(err, errInject) {
		t.Fatalf("execute() error = %v, want %v", err, errInject)
	}
}

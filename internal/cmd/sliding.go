package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otterscale/expirymap/internal/cmd/harness"
	"github.com/otterscale/expirymap/internal/config"
)

func NewSlidingCommand(conf *config.Config, newRunner RunnerInjector) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "sliding",
		Short:   "Run the load harness against a sliding-timeout expiry map",
		Example: "expirymap sliding --expiration=30s --minimum-tick=1s --read-through",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, cleanup, err := newRunner()
			if err != nil {
				return fmt.Errorf("failed to initialize runner: %w", err)
			}
			defer cleanup()

			cfg := harness.SlidingConfig{
				Ops:         opsConfig(conf),
				Harness:     harnessConfig(conf),
				Duration:    conf.HarnessDuration(),
				Expiration:  conf.SlidingExpiration(),
				MinimumTick: conf.SlidingMinimumTick(),
				ReadThrough: conf.SlidingReadThrough(),
			}

			return runner.RunSliding(cmd.Context(), cfg)
		},
	}

	if err := conf.BindFlags(cmd.Flags(), config.SlidingOptions); err != nil {
		return nil, err
	}

	return cmd, nil
}

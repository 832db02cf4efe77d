package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otterscale/expirymap/internal/app"
	"github.com/otterscale/expirymap/internal/cmd/harness"
	"github.com/otterscale/expirymap/internal/config"
)

func NewRotatingCommand(conf *config.Config, newRunner RunnerInjector) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "rotating",
		Short:   "Run the load harness against a bucket-rotating expiry map",
		Example: "expirymap rotating --buckets=3 --expiration=1m --duration=5m --writers=4",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, cleanup, err := newRunner()
			if err != nil {
				return fmt.Errorf("failed to initialize runner: %w", err)
			}
			defer cleanup()

			cfg := harness.RotatingConfig{
				Ops:        opsConfig(conf),
				Harness:    harnessConfig(conf),
				Duration:   conf.HarnessDuration(),
				Buckets:    conf.RotatingBuckets(),
				Expiration: conf.RotatingExpiration(),
			}

			return runner.RunRotating(cmd.Context(), cfg)
		},
	}

	if err := conf.BindFlags(cmd.Flags(), config.RotatingOptions); err != nil {
		return nil, err
	}

	return cmd, nil
}

func harnessConfig(conf *config.Config) app.HarnessConfig {
	return app.HarnessConfig{
		Writers:       conf.HarnessWriters(),
		Readers:       conf.HarnessReaders(),
		KeySpace:      conf.HarnessKeySpace(),
		WriteInterval: conf.HarnessWriteInterval(),
		ReadInterval:  conf.HarnessReadInterval(),
	}
}

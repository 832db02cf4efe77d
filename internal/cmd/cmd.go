// Package cmd defines the Cobra subcommands (rotating, sliding) and
// their Wire provider set. It bridges configuration, dependency
// injection, and the harness runner.
package cmd

import (
	"github.com/google/wire"

	"github.com/otterscale/expirymap/internal/cmd/harness"
	"github.com/otterscale/expirymap/internal/config"
)

// ProviderSet is the Wire provider set for the CLI layer. It exposes
// the harness Runner and its ops Handler.
var ProviderSet = wire.NewSet(
	harness.NewRunner,
	harness.NewHandler,
)

// RunnerInjector builds a Runner on demand so that the meter provider
// and metrics registry exist only for the subcommand that runs.
type RunnerInjector func() (*harness.Runner, func(), error)

func opsConfig(conf *config.Config) harness.OpsConfig {
	return harness.OpsConfig{
		Address:        conf.OpsAddress(),
		AllowedOrigins: conf.OpsAllowedOrigins(),
	}
}

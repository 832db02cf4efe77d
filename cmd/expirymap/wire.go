//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/spf13/cobra"

	"github.com/otterscale/expirymap/internal/cmd"
	"github.com/otterscale/expirymap/internal/cmd/harness"
	"github.com/otterscale/expirymap/internal/config"
	"github.com/otterscale/expirymap/internal/core"
)

func wireCmd() (*cobra.Command, func(), error) {
	panic(wire.Build(
		newCmd,
		config.ProviderSet,
	))
}

func wireRunner(core.Version) (*harness.Runner, func(), error) {
	panic(wire.Build(
		cmd.ProviderSet,
	))
}

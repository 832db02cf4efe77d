// Package config provides unified configuration loading from files,
// environment variables, and CLI flags using viper and pflag.
//
// Resolution order (highest wins):
//  1. CLI flags
//  2. Environment variables (prefix EXPIRYMAP_)
//  3. Config file (config.yaml in . or /etc/expirymap/)
//  4. Compiled defaults
package config

// Viper keys shared by every subcommand.
const (
	keyOpsAddress           = "ops.address"
	keyOpsAllowedOrigins    = "ops.allowed_origins"
	keyHarnessDuration      = "harness.duration"
	keyHarnessWriters       = "harness.writers"
	keyHarnessReaders       = "harness.readers"
	keyHarnessKeySpace      = "harness.key_space"
	keyHarnessWriteInterval = "harness.write_interval"
	keyHarnessReadInterval  = "harness.read_interval"
)

// Viper keys for the rotating map.
const (
	keyRotatingBuckets    = "rotating.buckets"
	keyRotatingExpiration = "rotating.expiration"
)

// Viper keys for the sliding map.
const (
	keySlidingExpiration  = "sliding.expiration"
	keySlidingMinimumTick = "sliding.minimum_tick"
	keySlidingReadThrough = "sliding.read_through"
)

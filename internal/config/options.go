package config

import (
	"strings"
	"time"
)

// Option describes a single configuration entry: its viper key, the
// corresponding CLI flag name, the compiled default, and a
// human-readable description shown in --help output.
type Option struct {
	Key         string
	Flag        string
	Default     any
	Description string
}

// CommonOptions are registered on every subcommand.
var CommonOptions = []Option{
	{Key: keyOpsAddress, Flag: toFlag(keyOpsAddress), Default: ":8399", Description: "Ops server listen address (metrics and health)"},
	{Key: keyOpsAllowedOrigins, Flag: toFlag(keyOpsAllowedOrigins), Default: []string{}, Description: "Ops server allowed CORS origins"},
	{Key: keyHarnessDuration, Flag: toFlag(keyHarnessDuration), Default: 2 * time.Minute, Description: "How long the harness runs"},
	{Key: keyHarnessWriters, Flag: toFlag(keyHarnessWriters), Default: 1, Description: "Number of concurrent writers"},
	{Key: keyHarnessReaders, Flag: toFlag(keyHarnessReaders), Default: 1, Description: "Number of concurrent readers"},
	{Key: keyHarnessKeySpace, Flag: toFlag(keyHarnessKeySpace), Default: 1000, Description: "Number of distinct keys written"},
	{Key: keyHarnessWriteInterval, Flag: toFlag(keyHarnessWriteInterval), Default: 10 * time.Millisecond, Description: "Delay between writes of one writer"},
	{Key: keyHarnessReadInterval, Flag: toFlag(keyHarnessReadInterval), Default: 10 * time.Millisecond, Description: "Delay between reads of one reader"},
}

// RotatingOptions defines the configuration entries of the rotating
// subcommand.
var RotatingOptions = []Option{
	{Key: keyRotatingBuckets, Flag: toFlag(keyRotatingBuckets), Default: 3, Description: "Number of buckets"},
	{Key: keyRotatingExpiration, Flag: toFlag(keyRotatingExpiration), Default: 60 * time.Second, Description: "Expiration; the map is rotated every half of it"},
}

// SlidingOptions defines the configuration entries of the sliding
// subcommand.
var SlidingOptions = []Option{
	{Key: keySlidingExpiration, Flag: toFlag(keySlidingExpiration), Default: 60 * time.Second, Description: "Expiration measured from the last write"},
	{Key: keySlidingMinimumTick, Flag: toFlag(keySlidingMinimumTick), Default: time.Second, Description: "Lower bound of the reaper interval"},
	{Key: keySlidingReadThrough, Flag: toFlag(keySlidingReadThrough), Default: false, Description: "Readers fill misses through a loader"},
}

// toFlag converts a viper key like "sliding.minimum_tick" into a CLI
// flag like "minimum-tick" by lower-casing, replacing dots and
// underscores with hyphens, and stripping the section prefix.
func toFlag(key string) string {
	flag := strings.ToLower(key)
	flag = strings.ReplaceAll(flag, ".", "-")
	flag = strings.ReplaceAll(flag, "_", "-")
	flag = strings.TrimPrefix(flag, "ops-")
	flag = strings.TrimPrefix(flag, "harness-")
	flag = strings.TrimPrefix(flag, "rotating-")
	flag = strings.TrimPrefix(flag, "sliding-")
	return flag
}

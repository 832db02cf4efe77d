package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config wraps a viper instance pre-loaded with defaults, the optional
// config file and environment variables. CLI flags are bound per
// subcommand via BindFlags.
type Config struct {
	v *viper.Viper
}

// New returns a Config with compiled defaults applied and the config
// file and environment layered on top. A missing config file is not
// an error.
func New() (*Config, error) {
	v := viper.New()

	for _, options := range [][]Option{CommonOptions, RotatingOptions, SlidingOptions} {
		for _, o := range options {
			v.SetDefault(o.Key, o.Default)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/expirymap/")

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !(errors.As(err, &notFoundErr) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("EXPIRYMAP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return &Config{v: v}, nil
}

// BindFlags registers one flag per option on fs and binds it to the
// option's viper key.
func (c *Config) BindFlags(fs *pflag.FlagSet, options []Option) error {
	for _, o := range options {
		switch v := o.Default.(type) {
		case string:
			fs.String(o.Flag, v, o.Description)
		case int:
			fs.Int(o.Flag, v, o.Description)
		case bool:
			fs.Bool(o.Flag, v, o.Description)
		case []string:
			fs.StringSlice(o.Flag, v, o.Description)
		case time.Duration:
			fs.Duration(o.Flag, v, o.Description)
		default:
			return fmt.Errorf("unsupported flag type for key: %s", o.Key)
		}

		if err := c.v.BindPFlag(o.Key, fs.Lookup(o.Flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
		}
	}

	return nil
}

func (c *Config) OpsAddress() string {
	return c.v.GetString(keyOpsAddress) // EXPIRYMAP_OPS_ADDRESS
}

func (c *Config) OpsAllowedOrigins() []string {
	return c.v.GetStringSlice(keyOpsAllowedOrigins) // EXPIRYMAP_OPS_ALLOWED_ORIGINS
}

func (c *Config) HarnessDuration() time.Duration {
	return c.v.GetDuration(keyHarnessDuration) // EXPIRYMAP_HARNESS_DURATION
}

func (c *Config) HarnessWriters() int {
	return c.v.GetInt(keyHarnessWriters) // EXPIRYMAP_HARNESS_WRITERS
}

func (c *Config) HarnessReaders() int {
	return c.v.GetInt(keyHarnessReaders) // EXPIRYMAP_HARNESS_READERS
}

func (c *Config) HarnessKeySpace() int {
	return c.v.GetInt(keyHarnessKeySpace) // EXPIRYMAP_HARNESS_KEY_SPACE
}

func (c *Config) HarnessWriteInterval() time.Duration {
	return c.v.GetDuration(keyHarnessWriteInterval) // EXPIRYMAP_HARNESS_WRITE_INTERVAL
}

func (c *Config) HarnessReadInterval() time.Duration {
	return c.v.GetDuration(keyHarnessReadInterval) // EXPIRYMAP_HARNESS_READ_INTERVAL
}

func (c *Config) RotatingBuckets() int {
	return c.v.GetInt(keyRotatingBuckets) // EXPIRYMAP_ROTATING_BUCKETS
}

func (c *Config) RotatingExpiration() time.Duration {
	return c.v.GetDuration(keyRotatingExpiration) // EXPIRYMAP_ROTATING_EXPIRATION
}

func (c *Config) SlidingExpiration() time.Duration {
	return c.v.GetDuration(keySlidingExpiration) // EXPIRYMAP_SLIDING_EXPIRATION
}

func (c *Config) SlidingMinimumTick() time.Duration {
	return c.v.GetDuration(keySlidingMinimumTick) // EXPIRYMAP_SLIDING_MINIMUM_TICK
}

func (c *Config) SlidingReadThrough() bool {
	return c.v.GetBool(keySlidingReadThrough) // EXPIRYMAP_SLIDING_READ_THROUGH
}

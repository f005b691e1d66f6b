// Package config loads the engine process's configuration: engine
// sizing, generator defaults, stream sampling cadence, rate-limit
// parameters, and logging level - via viper, the same way as the
// teacher repo's own config layer.
package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Engine struct {
		RingBufferSize uint64 `mapstructure:"ring_buffer_size"`
	} `mapstructure:"engine"`

	Generator struct {
		MeanPrice float64 `mapstructure:"mean_price"`
		SDPrice   float64 `mapstructure:"sd_price"`
		SeedCount int     `mapstructure:"seed_count"`
	} `mapstructure:"generator"`

	Stream struct {
		TopN            int  `mapstructure:"top_n"`
		SampleEvery     int  `mapstructure:"sample_every"`
		BestLevelsOnly  bool `mapstructure:"best_levels_only"`
		PublisherBuffer int  `mapstructure:"publisher_buffer"`
	} `mapstructure:"stream"`

	RateLimit struct {
		RedisAddr  string  `mapstructure:"redis_addr"`
		BucketSize int64   `mapstructure:"bucket_size"`
		RefillRate float64 `mapstructure:"refill_rate"`
	} `mapstructure:"rate_limit"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
}

var (
	current *Config
	once    sync.Once
)

// Load reads configuration from configPath (a directory to search for
// config.yaml) plus environment variables prefixed ENGINE_, falling
// back to defaults for anything unset. Load is idempotent - only the
// first call actually reads from disk/env.
func Load(configPath string) (*Config, error) {
	var err error

	once.Do(func() {
		current = &Config{}
		setDefaults(current)

		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if configPath != "" {
			v.AddConfigPath(configPath)
		} else {
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
		}

		v.AutomaticEnv()
		v.SetEnvPrefix("ENGINE")

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config file: %w", readErr)
				return
			}
		}

		if unmarshalErr := v.Unmarshal(current); unmarshalErr != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
			return
		}
	})

	return current, err
}

// Get returns the process-wide configuration, loading defaults if Load
// was never called.
func Get() *Config {
	if current == nil {
		if _, err := Load(""); err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	}
	return current
}

func setDefaults(c *Config) {
	c.Engine.RingBufferSize = 8192

	c.Generator.MeanPrice = 100.0
	c.Generator.SDPrice = 5.0
	c.Generator.SeedCount = 1000

	c.Stream.TopN = 10
	c.Stream.SampleEvery = 100
	c.Stream.BestLevelsOnly = false
	c.Stream.PublisherBuffer = 100

	c.RateLimit.RedisAddr = "localhost:6379"
	c.RateLimit.BucketSize = 100
	c.RateLimit.RefillRate = 10.0

	c.Logging.Level = "info"
	c.Logging.Format = "json"
}

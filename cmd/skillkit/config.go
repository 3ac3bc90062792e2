package main

import (
	"github.com/anyt-io/notebook/pkg/logger"
	"github.com/anyt-io/notebook/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the full skillkit configuration, merged by viper from defaults,
// config.yaml, SKILLKIT_* environment variables and flags
type Config struct {
	Log     logger.Config    `mapstructure:",squash"`
	Quiet   bool             `mapstructure:"quiet"`
	Tracing telemetry.Config `mapstructure:"tracing"`
	Package PackageConfig    `mapstructure:"package"`
	Watch   WatchConfig      `mapstructure:"watch"`
}

func loadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	return &cfg, nil
}

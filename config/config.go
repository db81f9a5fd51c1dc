// Package config loads cosmetic shell defaults from an optional config
// file in the working directory. Nothing in the shell's job-control
// semantics depends on it; absence of a file is not an error.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the handful of cosmetic defaults a config file may
// override.
type Config struct {
	Prompt       string `mapstructure:"prompt"`
	ReportRusage bool   `mapstructure:"report_rusage"`
}

// Load reads ./config.{yaml,json,toml,...} via viper and unmarshals it.
// Any read or unmarshal failure is returned to the caller, which should
// fall back to Default().
func Load() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	cfg := Default()
	if err := viper.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("smash: config: failed to load config: %v", err)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("smash: config: failed to unmarshal config: %v", err)
	}
	return cfg, nil
}

// Default returns the built-in cosmetic defaults: the fixed "smash> "
// prompt and resource-usage reporting off.
func Default() *Config {
	return &Config{
		Prompt:       "smash> ",
		ReportRusage: false,
	}
}

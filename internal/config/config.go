// Package config loads the engine's YAML configuration via viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the engine's runtime configuration. Page size is not
// configurable here: it is the on-disk wire-format constant every page
// layout depends on (storage.PageSize).
type Config struct {
	Storage struct {
		DataDir            string `mapstructure:"data_dir"`
		BufferPoolCapacity int    `mapstructure:"buffer_pool_capacity"`
	} `mapstructure:"storage"`
	REPL struct {
		HistoryFile string `mapstructure:"history_file"`
	} `mapstructure:"repl"`
}

// Default returns a Config with sane defaults for running without a
// config file.
func Default() *Config {
	var c Config
	c.Storage.DataDir = "./data"
	c.Storage.BufferPoolCapacity = 128
	c.REPL.HistoryFile = "./.minidb_history"
	return &c
}

// Load reads a YAML config file at path and unmarshals it, falling back
// to Default() field values for anything the file omits.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.buffer_pool_capacity", cfg.Storage.BufferPoolCapacity)
	v.SetDefault("repl.history_file", cfg.REPL.HistoryFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if cfg.Storage.BufferPoolCapacity <= 0 {
		return nil, fmt.Errorf("config: storage.buffer_pool_capacity must be positive, got %d", cfg.Storage.BufferPoolCapacity)
	}
	return cfg, nil
}

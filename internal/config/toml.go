// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Capture CaptureConfig `toml:"capture"`
	Train   TrainConfig   `toml:"train"`
}

// CaptureConfig maps capture-related settings.
type CaptureConfig struct {
	Prompt        *string  `toml:"prompt"`
	MinSimilarity *float64 `toml:"min-similarity"`
	MinEvents     *int     `toml:"min-events"`
}

// TrainConfig maps training-related settings.
type TrainConfig struct {
	MinPerUser   *int     `toml:"min-per-user"`
	TestFraction *float64 `toml:"test-fraction"`
	Trees        *int     `toml:"trees"`
	Seed         *int64   `toml:"seed"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

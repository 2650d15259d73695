package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds conductor settings loaded from yolla.toml.
type Config struct {
	Model          string `toml:"model"`           // model name passed to the backend
	SystemPrompt   string `toml:"system_prompt"`   // prepended to every run
	MaxConcurrent  int    `toml:"max_concurrent"`  // dispatcher slot count
	StrictAgents   bool   `toml:"strict_agents"`   // fail starts naming unknown agents
	DefaultCommand string `toml:"default_command"` // launch command for profile-less agents
}

// defaultConfig returns the settings used when no config file exists.
func defaultConfig() Config {
	return Config{
		MaxConcurrent:  4,
		DefaultCommand: "",
	}
}

// loadConfig reads yolla.toml from path. A missing file yields the defaults;
// a malformed file is an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}

	return cfg, nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"yolla/pkg/protocol"
)

// Paths holds all resolved yolla state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	YollaHome   string // ~/.yolla or YOLLA_HOME
	StateDBPath string // state.db or YOLLA_DB_PATH
	ProfilesDir string // agents/ or YOLLA_PROFILES_DIR
	ConfigPath  string // yolla.toml (respects YOLLA_HOME)
}

// ResolvePaths returns all yolla paths, respecting env var overrides.
// Environment variables:
//   - YOLLA_HOME: base directory for all yolla state (default: ~/.yolla)
//   - YOLLA_DB_PATH: state database (default: $YOLLA_HOME/state.db)
//   - YOLLA_PROFILES_DIR: agent profile directory (default: $YOLLA_HOME/agents)
//
// If YOLLA_HOME is set, it becomes the base for all default paths.
// Specific env vars override both the default and the YOLLA_HOME base.
func ResolvePaths() (*Paths, error) {
	yollaHome, err := resolveYollaHome()
	if err != nil {
		return nil, err
	}

	paths := &Paths{
		YollaHome:   yollaHome,
		StateDBPath: resolvePathWithEnv("YOLLA_DB_PATH", yollaHome, "state.db"),
		ProfilesDir: resolvePathWithEnv("YOLLA_PROFILES_DIR", yollaHome, "agents"),
		ConfigPath:  filepath.Join(yollaHome, "yolla.toml"),
	}

	return paths, nil
}

// resolveYollaHome returns the yolla home directory from YOLLA_HOME or ~/.yolla.
func resolveYollaHome() (string, error) {
	if v := os.Getenv("YOLLA_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, protocol.YollaDir), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}

// Package config handles configuration loading and management for aiq.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for aiq.
type Config struct {
	Planner      PlannerConfig      `mapstructure:"planner"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	State        StateConfig        `mapstructure:"state"`
	Log          LogConfig          `mapstructure:"log"`
}

// PlannerConfig holds goal planner settings.
type PlannerConfig struct {
	// RulesPath points to a rules.yaml with decomposition/expansion rules.
	// Empty means the built-in content pipeline rules.
	RulesPath string `mapstructure:"rules_path"`
}

// OrchestratorConfig holds tick loop settings.
type OrchestratorConfig struct {
	// MaxTicks bounds a run; 0 means tick until the store stops changing.
	MaxTicks int `mapstructure:"max_ticks"`
	// EventBuffer is the emitter channel capacity.
	EventBuffer int `mapstructure:"event_buffer"`
}

// StateConfig holds snapshot persistence settings.
type StateConfig struct {
	// DBPath is the snapshot database path. Empty means .aiq/state.db in
	// the working directory.
	DBPath string `mapstructure:"db_path"`
}

// LogConfig holds debug logging settings.
type LogConfig struct {
	// Path is the debug log file. Empty disables debug logging.
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (AIQ_*)
// 2. Project config (.aiq.yaml in the current directory or a parent)
// 3. User config (~/.config/aiq/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("AIQ")
	v.AutomaticEnv()
	v.BindEnv("planner.rules_path", "AIQ_RULES_PATH")
	v.BindEnv("state.db_path", "AIQ_DB_PATH")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("planner.rules_path", "")
	v.SetDefault("orchestrator.max_ticks", 16)
	v.SetDefault("orchestrator.event_buffer", 100)
	v.SetDefault("state.db_path", "")
	v.SetDefault("log.path", "")
}

// getUserConfigDir returns the XDG config directory for aiq.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "aiq")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".aiq"
	}
	return filepath.Join(home, ".config", "aiq")
}

// findProjectConfig walks up from the working directory looking for .aiq.yaml.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ".aiq.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

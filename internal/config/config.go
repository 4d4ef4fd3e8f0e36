package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultThresholdMB is the size floor below which a vacuum run skips a file.
const DefaultThresholdMB = 50

// ConfigFile, when set, overrides the default config file location.
var ConfigFile string

func Default() *Config {
	return &Config{
		ThresholdMB: DefaultThresholdMB,
		Engine:      EngineCLI,
		LogLevel:    "info",
	}
}

func GetConfigDir() (string, error) {
	if dir := os.Getenv("CURSORCLEAN_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cursorclean"), nil
}

func GetConfigFilePath() (string, error) {
	if ConfigFile != "" {
		return ConfigFile, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// LoadConfig reads the YAML config, then applies CURSORCLEAN_* environment
// overrides. A missing file yields the defaults.
func LoadConfig() (*Config, error) {
	path, err := GetConfigFilePath()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Engine {
	case "", EngineCLI, EngineEmbedded:
	default:
		return fmt.Errorf("unknown engine %q (want %q or %q)", c.Engine, EngineCLI, EngineEmbedded)
	}
	if c.ThresholdMB < 0 {
		return errors.New("threshold_mb must not be negative")
	}
	if c.EngineTimeout < 0 {
		return errors.New("engine_timeout must not be negative")
	}
	return nil
}

// ThresholdBytes converts the configured threshold to bytes.
func (c *Config) ThresholdBytes() int64 {
	return c.ThresholdMB * 1024 * 1024
}

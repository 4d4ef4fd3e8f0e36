package config

import "time"

const (
	EngineCLI      = "cli"
	EngineEmbedded = "embedded"
)

type Config struct {
	ThresholdMB   int64         `yaml:"threshold_mb" env:"CURSORCLEAN_THRESHOLD_MB"`
	Engine        string        `yaml:"engine" env:"CURSORCLEAN_ENGINE"`
	SQLitePath    string        `yaml:"sqlite_path,omitempty" env:"CURSORCLEAN_SQLITE"`
	EngineTimeout time.Duration `yaml:"engine_timeout,omitempty" env:"CURSORCLEAN_ENGINE_TIMEOUT"`
	AppDataDir    string        `yaml:"app_data_dir,omitempty" env:"CURSORCLEAN_APP_DATA_DIR"`
	CacheDir      string        `yaml:"cache_dir,omitempty" env:"CURSORCLEAN_CACHE_DIR"`
	LogLevel      string        `yaml:"log_level" env:"CURSORCLEAN_LOG_LEVEL"`
}

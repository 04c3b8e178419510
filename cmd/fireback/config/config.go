package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config : top-level configuration.
type Config struct {
	MetricsListen string         `toml:"metrics_listen"`
	Log           LogConfig      `toml:"log_config"`
	Tracker       TrackerConfig  `toml:"tracker_config"`
	Progress      ProgressConfig `toml:"progress_config"`
}

type LogConfig struct {
	MinLevelPercents map[string]float64 `toml:"min_level_percents"`
	LogLevel         string             `toml:"log_level"`
	JSON             bool               `toml:"json"`
}

// TrackerConfig bounds the in-memory operation tracker.
type TrackerConfig struct {
	MaxCompletedOperations int `toml:"max_completed_operations"`
	MaxAuditEntries        int `toml:"max_audit_entries"`
}

// ProgressConfig throttles tracker progress updates during a parse.
type ProgressConfig struct {
	Interval string `toml:"interval"`
}

// Load reads a TOML config file. A missing file yields the zero
// config so the CLI works without one.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

func ParseLevelPercents(cfg LogConfig) (map[slog.Level]float64, error) {
	out := map[slog.Level]float64{
		slog.LevelDebug: 100.0,
		slog.LevelInfo:  100.0,
		slog.LevelWarn:  100.0,
		slog.LevelError: 100.0,
	}

	for k, v := range cfg.MinLevelPercents {
		switch strings.ToLower(k) {
		case "debug":
			out[slog.LevelDebug] = v
		case "info":
			out[slog.LevelInfo] = v
		case "warn":
			out[slog.LevelWarn] = v
		case "error":
			out[slog.LevelError] = v
		default:
			return nil, fmt.Errorf("unknown log level: %s", k)
		}
	}
	return out, nil
}

// ProgressInterval parses the configured progress throttle, defaulting
// to 200ms.
func ProgressInterval(cfg ProgressConfig) (time.Duration, error) {
	if cfg.Interval == "" {
		return 200 * time.Millisecond, nil
	}
	parsed, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid progress interval: %w", err)
	}
	return parsed, nil
}

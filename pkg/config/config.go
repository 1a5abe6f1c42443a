// Package config loads the client configuration: defaults first, then the
// config file, then environment overrides.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig points at the Mindshard backend.
type ServerConfig struct {
	BaseURL string `yaml:"baseUrl"`
	// RequestTimeout bounds one streaming exchange. Zero disables the
	// internal timeout; a hung stream then relies on external
	// cancellation.
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	// FileTimeout bounds one file get/save call.
	FileTimeout time.Duration `yaml:"fileTimeout"`
}

// SessionConfig controls session persistence.
type SessionConfig struct {
	// HistoryDB is the SQLite file retaining transcripts across
	// restarts. Empty disables persistence.
	HistoryDB string `yaml:"historyDb"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty = stderr only
}

// Default returns the built-in configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			BaseURL:     "http://127.0.0.1:8000",
			FileTimeout: 30 * time.Second,
		},
		Session: SessionConfig{
			HistoryDB: filepath.Join(homeDir, ".mindshard", "history.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path, merging over defaults. A missing
// file is not an error. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if val := os.Getenv("MINDSHARD_BASE_URL"); val != "" {
		cfg.Server.BaseURL = val
	}
	if val := os.Getenv("MINDSHARD_HISTORY_DB"); val != "" {
		cfg.Session.HistoryDB = val
	}
	if val := os.Getenv("MINDSHARD_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}

	return cfg, nil
}

// SetupLogger installs the default slog logger per the log configuration.
func (c *Config) SetupLogger() error {
	var out io.Writer = os.Stderr
	if c.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Log.File), 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(c.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(c.Log.Level)})
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

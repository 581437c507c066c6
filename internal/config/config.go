// Package config loads ragchat settings from defaults, an optional YAML file,
// an optional .env file and the environment, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Wccurate/NLP-Frontend/internal/logger"
)

// DefaultConfigFile is read from the working directory when no path is given.
const DefaultConfigFile = "ragchat.yaml"

// Config holds all client settings.
type Config struct {
	// APIBaseURL is the backend base address. Empty means the relative
	// default path, resolved against Origin.
	APIBaseURL string `yaml:"api_base_url"`
	Origin     string `yaml:"origin"`

	HistoryLimit int `yaml:"history_limit"`

	Logging LoggingConfig `yaml:"logging"`
	Display DisplayConfig `yaml:"display"`
	Watch   WatchConfig   `yaml:"watch"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DisplayConfig configures terminal rendering.
type DisplayConfig struct {
	WordWrap int    `yaml:"word_wrap"`
	Style    string `yaml:"style"` // glamour style: auto, dark, light, notty
}

// WatchConfig configures drop-folder mode.
type WatchConfig struct {
	Dir         string        `yaml:"dir"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:   "",
		Origin:       "http://localhost:8000",
		HistoryLimit: 20,
		Logging: LoggingConfig{
			Level: "info",
			File:  logger.DefaultLogPath,
		},
		Display: DisplayConfig{
			WordWrap: 80,
			Style:    "auto",
		},
		Watch: WatchConfig{
			Dir:         "./documents",
			SettleDelay: 500 * time.Millisecond,
		},
	}
}

// Load builds the configuration. A missing config file or .env file is not
// an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads variables from a .env file without overriding ones
// already set in the process environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v, ok := os.LookupEnv("RAGCHAT_API_BASE_URL"); ok {
		c.APIBaseURL = v
	}
	if v := os.Getenv("RAGCHAT_ORIGIN"); v != "" {
		c.Origin = v
	}
	if v := os.Getenv("RAGCHAT_HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RAGCHAT_HISTORY_LIMIT: %w", err)
		}
		c.HistoryLimit = n
	}
	if v := os.Getenv("RAGCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RAGCHAT_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("RAGCHAT_WORD_WRAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RAGCHAT_WORD_WRAP: %w", err)
		}
		c.Display.WordWrap = n
	}
	if v := os.Getenv("RAGCHAT_WATCH_DIR"); v != "" {
		c.Watch.Dir = v
	}
	return nil
}

// Validate checks the settings for values the client cannot work with.
func (c *Config) Validate() error {
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.Display.WordWrap < 0 {
		return fmt.Errorf("display.word_wrap must not be negative, got %d", c.Display.WordWrap)
	}
	u, err := url.Parse(c.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("origin must be an absolute URL, got %q", c.Origin)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// Package config loads the web command's settings from an optional YAML
// file followed by environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultListenAddr   = ":4000"
	DefaultDatabasePath = "radio.db"
	DefaultLogLevel     = "info"
	DefaultEndpoint     = "https://www.googleapis.com/youtube/v3"
	DefaultMaxResults   = 20
	DefaultCategoryID   = "10"
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = time.Second
	DefaultVolume       = 100
)

type Config struct {
	ListenAddr   string `yaml:"listen_addr"`
	DatabasePath string `yaml:"database_path"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`

	Search SearchConfig `yaml:"search"`
	Player PlayerConfig `yaml:"player"`
}

type SearchConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	MaxResults int           `yaml:"max_results"`
	CategoryID string        `yaml:"category_id"`
	Timeout    time.Duration `yaml:"timeout"`
}

type PlayerConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	DefaultVolume int           `yaml:"default_volume"`
	// ReleaseOnHome tears the widget down when leaving the player screen.
	// Set it to false to keep audio playing in the background.
	ReleaseOnHome *bool `yaml:"release_on_home"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the YAML file at path, applies defaults and then environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	c.applyDefaults()
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Search.Endpoint == "" {
		c.Search.Endpoint = DefaultEndpoint
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = DefaultMaxResults
	}
	if c.Search.CategoryID == "" {
		c.Search.CategoryID = DefaultCategoryID
	}
	if c.Search.Timeout == 0 {
		c.Search.Timeout = DefaultTimeout
	}
	if c.Player.PollInterval == 0 {
		c.Player.PollInterval = DefaultPollInterval
	}
	if c.Player.DefaultVolume == 0 {
		c.Player.DefaultVolume = DefaultVolume
	}
	if c.Player.ReleaseOnHome == nil {
		v := true
		c.Player.ReleaseOnHome = &v
	}
}

// applyEnv overrides file values with LISTEN_ADDR, DATABASE_PATH, LOG_LEVEL
// and YOUTUBE_SEARCH_ENDPOINT when set.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := getenv("DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("YOUTUBE_SEARCH_ENDPOINT"); v != "" {
		c.Search.Endpoint = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format: unsupported format %q", c.LogFormat)
	}
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 50 {
		return fmt.Errorf("search.max_results: %d outside 1..50", c.Search.MaxResults)
	}
	if c.Search.Timeout < 0 {
		return errors.New("search.timeout: must be positive")
	}
	if c.Player.PollInterval <= 0 {
		return errors.New("player.poll_interval: must be positive")
	}
	if c.Player.DefaultVolume < 0 || c.Player.DefaultVolume > 100 {
		return fmt.Errorf("player.default_volume: %d outside 0..100", c.Player.DefaultVolume)
	}
	return nil
}

// ReleasesOnHome reports whether leaving the player screen releases the
// widget.
func (c *Config) ReleasesOnHome() bool {
	return c.Player.ReleaseOnHome == nil || *c.Player.ReleaseOnHome
}

// NewLogger builds the application logger from the log settings.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(strings.ToLower(c.LogLevel)); err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

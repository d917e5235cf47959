// Package config loads the settings shared by the lyricsync commands from a
// YAML file, a .env file and the environment, in that order of precedence
// from lowest to highest.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"

	DefaultPort = "8080"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	Storage struct {
		Backend  string `yaml:"backend"`
		DBPath   string `yaml:"db_path"`
		RedisURL string `yaml:"redis_url"`
	} `yaml:"storage"`

	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Engine struct {
		AutoScroll           bool          `yaml:"auto_scroll"`
		QuietPeriod          time.Duration `yaml:"user_scroll_quiet_period"`
		CenterLine           bool          `yaml:"center_line"`
		CenterOffsetFraction float64       `yaml:"center_offset_fraction"`
		TopPadding           float64       `yaml:"top_padding_fraction"`
		BottomPadding        float64       `yaml:"bottom_padding_fraction"`
	} `yaml:"engine"`

	path string
}

func defaultConfig() *Config {
	c := &Config{}
	c.LogLevel = "INFO"

	c.Storage.Backend = BackendSQLite
	c.Storage.DBPath = "lyricsync.sqlite3"

	c.Server.Port = DefaultPort
	c.Server.AllowedOrigins = []string{"*"}

	ec := lyricsync.DefaultEngineConfig()
	c.Engine.AutoScroll = ec.AutoScrollEnabled
	c.Engine.QuietPeriod = ec.UserScrollQuietPeriod
	c.Engine.CenterLine = ec.CenterLineEnabled
	c.Engine.CenterOffsetFraction = ec.CenterOffsetFraction
	c.Engine.TopPadding = ec.TopPaddingFraction
	c.Engine.BottomPadding = ec.BottomPaddingFraction

	return c
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads .env, then the YAML file at path (or LYRICSYNC_CONFIG when path
// is empty), then applies environment overrides. No file at all is fine;
// a named file that does not exist is an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("LYRICSYNC_CONFIG")
	}

	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		cfg.path = path
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// decode unmarshals data over the current values; absent fields keep them.
func (c *Config) decode(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(c)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LYRICSYNC_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("LYRICSYNC_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("LYRICSYNC_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) normalize() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendSQLite
	}
	c.LogLevel = strings.ToUpper(strings.TrimSpace(c.LogLevel))
	c.Server.Port = strings.TrimPrefix(strings.TrimSpace(c.Server.Port), ":")
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
}

// Path is the file the configuration was read from, empty for defaults.
func (c *Config) Path() string { return c.path }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Server.Port }

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// EngineConfig converts the engine section.
func (c *Config) EngineConfig() lyricsync.EngineConfig {
	return lyricsync.EngineConfig{
		AutoScrollEnabled:     c.Engine.AutoScroll,
		UserScrollQuietPeriod: c.Engine.QuietPeriod,
		CenterLineEnabled:     c.Engine.CenterLine,
		CenterOffsetFraction:  c.Engine.CenterOffsetFraction,
		TopPaddingFraction:    c.Engine.TopPadding,
		BottomPaddingFraction: c.Engine.BottomPadding,
	}
}

// Options returns the service options for this configuration.
func (c *Config) Options() []lyricsync.Option {
	opts := []lyricsync.Option{
		lyricsync.WithDBPath(c.Storage.DBPath),
		lyricsync.WithEngineConfig(c.EngineConfig()),
	}
	if c.Storage.Backend == BackendRedis {
		opts = append(opts, lyricsync.WithRedisURL(c.Storage.RedisURL))
	}
	return opts
}

// GetEnvOrDefault returns the value of key, or def when it is unset or empty.
func GetEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

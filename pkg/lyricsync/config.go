package lyricsync

import "time"

// EngineConfig holds the per-session scroll behaviour.
type EngineConfig struct {
	AutoScrollEnabled     bool          `json:"auto_scroll"`
	UserScrollQuietPeriod time.Duration `json:"user_scroll_quiet_period"`
	CenterLineEnabled     bool          `json:"center_line"`
	CenterOffsetFraction  float64       `json:"center_offset_fraction"`
	TopPaddingFraction    float64       `json:"top_padding_fraction"`
	BottomPaddingFraction float64       `json:"bottom_padding_fraction"`
}

const (
	DefaultQuietPeriod          = 3 * time.Second
	DefaultCenterOffsetFraction = 0.3
	DefaultTopPadding           = 0.45
	DefaultBottomPadding        = 0.5
)

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		AutoScrollEnabled:     true,
		UserScrollQuietPeriod: DefaultQuietPeriod,
		CenterLineEnabled:     true,
		CenterOffsetFraction:  DefaultCenterOffsetFraction,
		TopPaddingFraction:    DefaultTopPadding,
		BottomPaddingFraction: DefaultBottomPadding,
	}
}

// normalize replaces out-of-range values with defaults and logs each one.
func (c EngineConfig) normalize(log Logger) EngineConfig {
	if c.UserScrollQuietPeriod <= 0 {
		log.Warnf("user scroll quiet period %v is not positive, using %v", c.UserScrollQuietPeriod, DefaultQuietPeriod)
		c.UserScrollQuietPeriod = DefaultQuietPeriod
	}
	if c.CenterOffsetFraction <= 0 || c.CenterOffsetFraction >= 1 {
		log.Warnf("center offset fraction %v outside (0,1), using %v", c.CenterOffsetFraction, DefaultCenterOffsetFraction)
		c.CenterOffsetFraction = DefaultCenterOffsetFraction
	}
	if c.TopPaddingFraction < 0 || c.TopPaddingFraction > 1 {
		log.Warnf("top padding fraction %v outside [0,1], using %v", c.TopPaddingFraction, DefaultTopPadding)
		c.TopPaddingFraction = DefaultTopPadding
	}
	if c.BottomPaddingFraction < 0 || c.BottomPaddingFraction > 1 {
		log.Warnf("bottom padding fraction %v outside [0,1], using %v", c.BottomPaddingFraction, DefaultBottomPadding)
		c.BottomPaddingFraction = DefaultBottomPadding
	}
	return c
}

type Config struct {
	DBPath   string
	RedisURL string
	Engine   EngineConfig
	Logger   Logger
	Storage  Storage
	Clock    Clock
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithRedisURL selects the Redis store, e.g. "redis://localhost:6379/0".
func WithRedisURL(url string) Option {
	return func(c *Config) {
		c.RedisURL = url
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

func WithEngineConfig(ec EngineConfig) Option {
	return func(c *Config) {
		c.Engine = ec
	}
}

func WithAutoScroll(enabled bool) Option {
	return func(c *Config) {
		c.Engine.AutoScrollEnabled = enabled
	}
}

func WithQuietPeriod(d time.Duration) Option {
	return func(c *Config) {
		c.Engine.UserScrollQuietPeriod = d
	}
}

func WithCenterLine(enabled bool) Option {
	return func(c *Config) {
		c.Engine.CenterLineEnabled = enabled
	}
}

func WithCenterOffsetFraction(f float64) Option {
	return func(c *Config) {
		c.Engine.CenterOffsetFraction = f
	}
}

func WithPadding(top, bottom float64) Option {
	return func(c *Config) {
		c.Engine.TopPaddingFraction = top
		c.Engine.BottomPaddingFraction = bottom
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath: "lyricsync.sqlite3",
		Engine: DefaultEngineConfig(),
	}
}

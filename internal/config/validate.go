package config

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/LyricSync/pkg/logger"
)

var errNilConfig = errors.New("config is nil")

// Validate checks the configuration. Problems the engine can recover from
// on its own are returned as warnings; anything else is an error.
func (c *Config) Validate() (warnings []string, err error) {
	if c == nil {
		return nil, errNilConfig
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			return warnings, fmt.Errorf("storage.db_path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return warnings, fmt.Errorf("storage.redis_url is required for the redis backend")
		}
	default:
		return warnings, fmt.Errorf("unknown storage backend %q (want %s or %s)", c.Storage.Backend, BackendSQLite, BackendRedis)
	}

	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		warnings = append(warnings, fmt.Sprintf("unknown log_level %q, INFO will be used", c.LogLevel))
	}

	e := c.Engine
	if e.QuietPeriod <= 0 {
		warnings = append(warnings, fmt.Sprintf("engine.user_scroll_quiet_period %v is not positive", e.QuietPeriod))
	}
	if e.CenterOffsetFraction <= 0 || e.CenterOffsetFraction >= 1 {
		warnings = append(warnings, fmt.Sprintf("engine.center_offset_fraction %v is outside (0,1)", e.CenterOffsetFraction))
	}
	if e.TopPadding < 0 || e.TopPadding > 1 {
		warnings = append(warnings, fmt.Sprintf("engine.top_padding_fraction %v is outside [0,1]", e.TopPadding))
	}
	if e.BottomPadding < 0 || e.BottomPadding > 1 {
		warnings = append(warnings, fmt.Sprintf("engine.bottom_padding_fraction %v is outside [0,1]", e.BottomPadding))
	}

	return warnings, nil
}

package budgetgrid

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// Config holds the tunables of a grid core instance.
type Config struct {
	Batching BatchingConfig `toml:"batching"`
	History  HistoryConfig  `toml:"history"`
	Logging  LoggingConfig  `toml:"logging"`
}

// BatchingConfig holds the event batcher settings.
type BatchingConfig struct {
	DataChangeWindow Duration `toml:"data_change_window"`
	RowAddWindow     Duration `toml:"row_add_window"`
	MaxInFlight      int      `toml:"max_in_flight"` // 0 = unlimited
}

// HistoryConfig holds undo/redo settings.
type HistoryConfig struct {
	Limit int `toml:"limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Duration is a time.Duration that can be unmarshaled from TOML strings.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Batching: BatchingConfig{
			DataChangeWindow: Duration(DefaultDataChangeWindow),
			RowAddWindow:     Duration(DefaultRowAddWindow),
		},
		History: HistoryConfig{
			Limit: DefaultHistoryLimit,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a TOML file and environment variables.
// Priority: env vars > TOML file > defaults. A missing file is not an error,
// and an empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies BUDGETGRID_* environment variable overrides. Malformed
// values are ignored.
func (c *Config) applyEnv() {
	if v := os.Getenv("BUDGETGRID_DATA_CHANGE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Batching.DataChangeWindow = Duration(d)
		}
	}
	if v := os.Getenv("BUDGETGRID_ROW_ADD_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Batching.RowAddWindow = Duration(d)
		}
	}
	if v := os.Getenv("BUDGETGRID_MAX_IN_FLIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Batching.MaxInFlight = n
		}
	}
	if v := os.Getenv("BUDGETGRID_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.History.Limit = n
		}
	}
	if v := os.Getenv("BUDGETGRID_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// NewHistory returns an empty history bounded by the configured limit.
func (c *Config) NewHistory() *History {
	return NewHistory(c.History.Limit)
}

// NewLogger builds the logger for the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	return NewLogger(c.Logging.Level)
}

// BatcherOptions turns the batching settings into EventBatcher options.
func (c *Config) BatcherOptions() []Option {
	return []Option{
		WithDataChangeWindow(c.Batching.DataChangeWindow.Duration()),
		WithRowAddWindow(c.Batching.RowAddWindow.Duration()),
		WithMaxInFlight(c.Batching.MaxInFlight),
	}
}

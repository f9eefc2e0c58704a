// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/javiermolinar/dayline/internal/item"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Timeline TimelineConfig `toml:"timeline"`
	Cache    CacheConfig    `toml:"cache"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`
}

// ServerConfig holds HTTP settings for both sides of the API.
type ServerConfig struct {
	Listen string `toml:"listen"` // address `dayline serve` binds, e.g. "127.0.0.1:8420"
	URL    string `toml:"url"`    // server the client talks to; empty works on the local database
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath             string `toml:"db_path"`
	TrashRetentionDays int    `toml:"trash_retention_days"`
	PurgeSchedule      string `toml:"purge_schedule"` // cron spec
}

// TimelineConfig holds layout and editing settings.
type TimelineConfig struct {
	PixelsPerHour      int    `toml:"pixels_per_hour"`
	MinItemHeight      int    `toml:"min_item_height"`
	SnapMinutes        int    `toml:"snap_minutes"`
	TaskDefaultMinutes int    `toml:"task_default_minutes"`
	DayStart           string `toml:"day_start"` // first hour shown by the TUI
	DayEnd             string `toml:"day_end"`
}

// CacheConfig holds the Redis day cache settings.
type CacheConfig struct {
	RedisAddr     string `toml:"redis_addr"` // empty disables the cache
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	TTLSeconds    int    `toml:"ttl_seconds"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // console or json
	Env    string `toml:"env"`    // development or production
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "latte"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: "127.0.0.1:8420",
		},
		Storage: StorageConfig{
			DBPath:             defaultDBPath(),
			TrashRetentionDays: 30,
			PurgeSchedule:      "0 3 * * *",
		},
		Timeline: TimelineConfig{
			PixelsPerHour:      100,
			MinItemHeight:      40,
			SnapMinutes:        item.DefaultSnapMinutes,
			TaskDefaultMinutes: 30,
			DayStart:           "07:00",
			DayEnd:             "22:00",
		},
		Cache: CacheConfig{
			TTLSeconds: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Env:    "development",
		},
		UI: UIConfig{
			Theme: "mocha",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dayline.db"
	}
	return filepath.Join(home, ".local", "share", "dayline", "dayline.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "dayline", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, loads a .env
// file next to it, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// loadDotEnv exports variables from a .env file. Variables already set in
// the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("parsing env file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"DAYLINE_LISTEN":         &cfg.Server.Listen,
		"DAYLINE_SERVER_URL":     &cfg.Server.URL,
		"DAYLINE_DB_PATH":        &cfg.Storage.DBPath,
		"DAYLINE_PURGE_SCHEDULE": &cfg.Storage.PurgeSchedule,
		"DAYLINE_DAY_START":      &cfg.Timeline.DayStart,
		"DAYLINE_DAY_END":        &cfg.Timeline.DayEnd,
		"DAYLINE_REDIS_ADDR":     &cfg.Cache.RedisAddr,
		"DAYLINE_REDIS_PASSWORD": &cfg.Cache.RedisPassword,
		"DAYLINE_LOG_LEVEL":      &cfg.Log.Level,
		"DAYLINE_LOG_FORMAT":     &cfg.Log.Format,
		"DAYLINE_ENV":            &cfg.Log.Env,
		"DAYLINE_UI_THEME":       &cfg.UI.Theme,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DAYLINE_TRASH_RETENTION_DAYS": &cfg.Storage.TrashRetentionDays,
		"DAYLINE_PIXELS_PER_HOUR":      &cfg.Timeline.PixelsPerHour,
		"DAYLINE_SNAP_MINUTES":         &cfg.Timeline.SnapMinutes,
		"DAYLINE_TASK_DEFAULT_MINUTES": &cfg.Timeline.TaskDefaultMinutes,
		"DAYLINE_REDIS_DB":             &cfg.Cache.RedisDB,
		"DAYLINE_CACHE_TTL_SECONDS":    &cfg.Cache.TTLSeconds,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", key, v)
		}
		*dst = n
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	start, err := validateTime(c.Timeline.DayStart, "day_start")
	if err != nil {
		return err
	}
	end, err := validateTime(c.Timeline.DayEnd, "day_end")
	if err != nil {
		return err
	}
	if start >= end {
		return errors.New("day_start must be before day_end")
	}

	if c.Timeline.PixelsPerHour <= 0 {
		return errors.New("pixels_per_hour must be positive")
	}
	if c.Timeline.MinItemHeight < 0 {
		return errors.New("min_item_height cannot be negative")
	}
	if c.Timeline.SnapMinutes <= 0 || c.Timeline.SnapMinutes > 60 {
		return errors.New("snap_minutes must be between 1 and 60")
	}
	if c.Timeline.TaskDefaultMinutes <= 0 {
		return errors.New("task_default_minutes must be positive")
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.Storage.TrashRetentionDays < 0 {
		return errors.New("trash_retention_days cannot be negative")
	}
	if _, err := cron.ParseStandard(c.Storage.PurgeSchedule); err != nil {
		return fmt.Errorf("purge_schedule %q: %w", c.Storage.PurgeSchedule, err)
	}
	if c.Cache.TTLSeconds < 0 {
		return errors.New("ttl_seconds cannot be negative")
	}

	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) (int, error) {
	m, err := item.ToMinutes(t)
	if err != nil || len(t) != 5 {
		return 0, fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return m, nil
}

// DayBounds returns the TUI viewport in minutes.
func (c *Config) DayBounds() (start, end int) {
	start, _ = item.ToMinutes(c.Timeline.DayStart)
	end, _ = item.ToMinutes(c.Timeline.DayEnd)
	return start, end
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// TrashRetention returns how long deleted items are kept.
func (c *Config) TrashRetention() time.Duration {
	return time.Duration(c.Storage.TrashRetentionDays) * 24 * time.Hour
}

// Remote reports whether the client should talk to a server.
func (c *Config) Remote() bool {
	return c.Server.URL != ""
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

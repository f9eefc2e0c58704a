package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Listen != "127.0.0.1:8420" {
		t.Errorf("expected listen 127.0.0.1:8420, got %s", cfg.Server.Listen)
	}
	if cfg.Timeline.PixelsPerHour != 100 {
		t.Errorf("expected 100 pixels per hour, got %d", cfg.Timeline.PixelsPerHour)
	}
	if cfg.Timeline.MinItemHeight != 40 {
		t.Errorf("expected min height 40, got %d", cfg.Timeline.MinItemHeight)
	}
	if cfg.Timeline.SnapMinutes != 5 {
		t.Errorf("expected snap 5, got %d", cfg.Timeline.SnapMinutes)
	}
	if cfg.Timeline.TaskDefaultMinutes != 30 {
		t.Errorf("expected task default 30, got %d", cfg.Timeline.TaskDefaultMinutes)
	}
	if cfg.Storage.TrashRetentionDays != 30 {
		t.Errorf("expected 30 retention days, got %d", cfg.Storage.TrashRetentionDays)
	}
	if cfg.Remote() {
		t.Error("default config should not be remote")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should return defaults
	if cfg.Timeline.DayStart != "07:00" {
		t.Errorf("expected default day_start, got %s", cfg.Timeline.DayStart)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[server]
url = "http://planner.local:8420"

[storage]
db_path = "/tmp/test.db"
trash_retention_days = 7

[timeline]
pixels_per_hour = 60
snap_minutes = 15
day_start = "08:00"
day_end = "18:00"

[cache]
redis_addr = "localhost:6379"
ttl_seconds = 120

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.Remote() || cfg.Server.URL != "http://planner.local:8420" {
		t.Errorf("expected remote url, got %q", cfg.Server.URL)
	}
	if cfg.Storage.DBPath != "/tmp/test.db" {
		t.Errorf("expected db_path /tmp/test.db, got %s", cfg.Storage.DBPath)
	}
	if cfg.TrashRetention() != 7*24*time.Hour {
		t.Errorf("expected 7 day retention, got %s", cfg.TrashRetention())
	}
	if cfg.Timeline.PixelsPerHour != 60 || cfg.Timeline.SnapMinutes != 15 {
		t.Errorf("timeline not loaded: %+v", cfg.Timeline)
	}
	start, end := cfg.DayBounds()
	if start != 480 || end != 1080 {
		t.Errorf("expected bounds 480-1080, got %d-%d", start, end)
	}
	if cfg.CacheTTL() != 2*time.Minute {
		t.Errorf("expected 2m ttl, got %s", cfg.CacheTTL())
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Errorf("log not loaded: %+v", cfg.Log)
	}
	// Unset keys keep their defaults
	if cfg.Timeline.MinItemHeight != 40 {
		t.Errorf("expected default min height, got %d", cfg.Timeline.MinItemHeight)
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte("[timeline\nday_start = "), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected error for malformed toml")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[timeline]
day_start = "08:00"
day_end = "16:00"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("DAYLINE_DAY_START", "06:30")
	t.Setenv("DAYLINE_SERVER_URL", "http://127.0.0.1:9000")
	t.Setenv("DAYLINE_SNAP_MINUTES", "10")
	t.Setenv("DAYLINE_DB_PATH", "/tmp/env.db")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Timeline.DayStart != "06:30" {
		t.Errorf("expected env override day_start 06:30, got %s", cfg.Timeline.DayStart)
	}
	if cfg.Timeline.DayEnd != "16:00" {
		t.Errorf("expected file day_end 16:00, got %s", cfg.Timeline.DayEnd)
	}
	if cfg.Server.URL != "http://127.0.0.1:9000" {
		t.Errorf("expected env server url, got %s", cfg.Server.URL)
	}
	if cfg.Timeline.SnapMinutes != 10 {
		t.Errorf("expected snap 10, got %d", cfg.Timeline.SnapMinutes)
	}
	if cfg.Storage.DBPath != "/tmp/env.db" {
		t.Errorf("expected env db path, got %s", cfg.Storage.DBPath)
	}
}

func TestLoadFrom_EnvNotInteger(t *testing.T) {
	t.Setenv("DAYLINE_SNAP_MINUTES", "five")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err == nil || !strings.Contains(err.Error(), "DAYLINE_SNAP_MINUTES") {
		t.Errorf("expected integer error, got %v", err)
	}
}

func TestLoadFrom_DotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	dotenv := "DAYLINE_REDIS_ADDR=cache:6379\nDAYLINE_LOG_LEVEL=warn\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(dotenv), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	// godotenv exports into the process; register cleanup before it does.
	t.Setenv("DAYLINE_REDIS_ADDR", "")
	t.Setenv("DAYLINE_LOG_LEVEL", "error")
	os.Unsetenv("DAYLINE_REDIS_ADDR")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("expected redis addr from .env, got %q", cfg.Cache.RedisAddr)
	}
	// Real environment wins over .env
	if cfg.Log.Level != "error" {
		t.Errorf("expected env log level error, got %s", cfg.Log.Level)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot get home directory")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~/.local/share/dayline", filepath.Join(home, ".local/share/dayline")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		result := expandPath(tt.input)
		if result != tt.expected {
			t.Errorf("expandPath(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad start", func(c *Config) { c.Timeline.DayStart = "7:00" }, "day_start"},
		{"bad end", func(c *Config) { c.Timeline.DayEnd = "25:00" }, "day_end"},
		{"start after end", func(c *Config) { c.Timeline.DayStart = "23:00" }, "before"},
		{"zero scale", func(c *Config) { c.Timeline.PixelsPerHour = 0 }, "pixels_per_hour"},
		{"negative height", func(c *Config) { c.Timeline.MinItemHeight = -1 }, "min_item_height"},
		{"zero snap", func(c *Config) { c.Timeline.SnapMinutes = 0 }, "snap_minutes"},
		{"huge snap", func(c *Config) { c.Timeline.SnapMinutes = 90 }, "snap_minutes"},
		{"zero task default", func(c *Config) { c.Timeline.TaskDefaultMinutes = 0 }, "task_default_minutes"},
		{"no db", func(c *Config) { c.Storage.DBPath = "" }, "db_path"},
		{"negative retention", func(c *Config) { c.Storage.TrashRetentionDays = -1 }, "trash_retention_days"},
		{"negative ttl", func(c *Config) { c.Cache.TTLSeconds = -5 }, "ttl_seconds"},
		{"bad purge schedule", func(c *Config) { c.Storage.PurgeSchedule = "every night" }, "purge_schedule"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.toml")

	cfg := Default()
	cfg.Timeline.DayStart = "06:00"
	cfg.Timeline.DayEnd = "20:00"
	cfg.Server.URL = "http://localhost:8420"
	cfg.Storage.DBPath = "/tmp/saved.db"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if loaded.Timeline.DayStart != "06:00" {
		t.Errorf("expected day_start 06:00, got %s", loaded.Timeline.DayStart)
	}
	if loaded.Timeline.DayEnd != "20:00" {
		t.Errorf("expected day_end 20:00, got %s", loaded.Timeline.DayEnd)
	}
	if loaded.Server.URL != "http://localhost:8420" {
		t.Errorf("expected server url, got %s", loaded.Server.URL)
	}
	if loaded.Storage.DBPath != "/tmp/saved.db" {
		t.Errorf("expected db path, got %s", loaded.Storage.DBPath)
	}
}

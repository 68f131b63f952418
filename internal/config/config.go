package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "focusflow"

// Config holds everything main needs to wire the client together.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Sync    SyncConfig    `yaml:"sync"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	DBPath  string        `yaml:"db_path"`
}

type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

type SyncConfig struct {
	// Debounce is the idle window before a goal or gym edit is written.
	Debounce time.Duration `yaml:"debounce"`
	// NotesDebounce applies to long-form text such as project notes.
	NotesDebounce time.Duration `yaml:"notes_debounce"`
	// ToastTTL is how long a transient banner stays on screen.
	ToastTTL time.Duration `yaml:"toast_ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type MetricsConfig struct {
	// Addr enables a /metrics listener when non-empty, e.g. "127.0.0.1:9464".
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file or env override is present.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:           "http://127.0.0.1:5000/api",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Sync: SyncConfig{
			Debounce:      400 * time.Millisecond,
			NotesDebounce: 900 * time.Millisecond,
			ToastTTL:      3 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Dir returns ~/.config/focusflow (or the platform equivalent).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

// Load reads config.yaml and .env from dir, then applies FOCUSFLOW_* environment
// overrides. Missing files are not an error.
func Load(dir string) (Config, error) {
	cfg := Default()

	if err := loadYAML(filepath.Join(dir, "config.yaml"), &cfg); err != nil {
		return cfg, err
	}

	envFile := filepath.Join(dir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return cfg, err
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(dir, appName+".db")
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = filepath.Join(dir, appName+".log")
	}
	return cfg, cfg.Validate()
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) overrideFromEnv() error {
	c.API.BaseURL = GetEnv("FOCUSFLOW_API_URL", c.API.BaseURL)
	c.Log.Level = GetEnv("FOCUSFLOW_LOG_LEVEL", c.Log.Level)
	c.Log.Path = GetEnv("FOCUSFLOW_LOG_PATH", c.Log.Path)
	c.Metrics.Addr = GetEnv("FOCUSFLOW_METRICS_ADDR", c.Metrics.Addr)
	c.DBPath = GetEnv("FOCUSFLOW_DB", c.DBPath)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"FOCUSFLOW_API_TIMEOUT", &c.API.Timeout},
		{"FOCUSFLOW_DEBOUNCE", &c.Sync.Debounce},
		{"FOCUSFLOW_NOTES_DEBOUNCE", &c.Sync.NotesDebounce},
		{"FOCUSFLOW_TOAST_TTL", &c.Sync.ToastTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("FOCUSFLOW_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FOCUSFLOW_RPS: %w", err)
		}
		c.API.RequestsPerSecond = rps
	}
	return nil
}

// Validate rejects values the client cannot run with.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Sync.Debounce <= 0 || c.Sync.NotesDebounce <= 0 {
		return errors.New("sync debounce windows must be positive")
	}
	if c.API.RequestsPerSecond <= 0 || c.API.Burst < 1 {
		return errors.New("api rate limit must allow at least one request")
	}
	return nil
}

// GetEnv returns the environment value for key, or def when unset.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

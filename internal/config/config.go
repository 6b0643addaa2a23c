package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at an optional YAML file.
const FileEnv = "STARTUPMATCH_CONFIG"

// Config holds settings for the terminal client and its local store.
type Config struct {
	Environment   string        `yaml:"environment" validate:"oneof=development production"`
	CommandPrefix string        `yaml:"command_prefix" validate:"len=1"`
	Storage       StorageConfig `yaml:"storage"`
	Timing        TimingConfig  `yaml:"timing"`
	ViewCache     CacheConfig   `yaml:"view_cache"`
	Breaker       BreakerConfig `yaml:"breaker"`
	Metrics       MetricsConfig `yaml:"metrics"`
	Log           LogConfig     `yaml:"log"`
}

// StorageConfig captures durable storage configuration.
type StorageConfig struct {
	Path string `yaml:"path" validate:"required"`
	// Key is the single key the store mirrors its snapshot under.
	Key string `yaml:"key" validate:"required"`
	// MaxValueBytes rejects larger writes with a quota error. Zero disables
	// the limit.
	MaxValueBytes int `yaml:"max_value_bytes" validate:"gte=0"`
}

// TimingConfig tunes the update schedulers.
type TimingConfig struct {
	BatchWindow    time.Duration `yaml:"batch_window" validate:"gt=0"`
	SearchDebounce time.Duration `yaml:"search_debounce" validate:"gt=0"`
	SearchMaxWait  time.Duration `yaml:"search_max_wait" validate:"gtefield=SearchDebounce"`
	ThrottleLimit  time.Duration `yaml:"throttle_limit" validate:"gt=0"`
}

// CacheConfig sizes the derived-view cache.
type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
	Capacity int           `yaml:"capacity" validate:"gte=0"`
}

// BreakerConfig controls when persistence stops retrying a failing backend.
type BreakerConfig struct {
	MaxFailures int           `yaml:"max_failures" validate:"gte=1"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

// MetricsConfig exposes Prometheus metrics over HTTP when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// LogConfig defines where and how verbosely to log.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Environment:   "development",
		CommandPrefix: "/",
		Storage: StorageConfig{
			Path:          "startupmatch.db",
			Key:           "startupmatch-store",
			MaxValueBytes: 5 << 20,
		},
		Timing: TimingConfig{
			BatchWindow:    16 * time.Millisecond,
			SearchDebounce: 300 * time.Millisecond,
			SearchMaxWait:  time.Second,
			ThrottleLimit:  100 * time.Millisecond,
		},
		ViewCache: CacheConfig{TTL: 5 * time.Minute, Capacity: 64},
		Breaker:   BreakerConfig{MaxFailures: 3, Timeout: 30 * time.Second},
		Log:       LogConfig{Level: "info", File: "startupmatch.log"},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by STARTUPMATCH_CONFIG, and STARTUPMATCH_* environment variables, in that
// order of precedence from lowest to highest.
func Load() (Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Prefix returns the rune that starts a command in the client input.
func (c Config) Prefix() rune {
	runes := []rune(c.CommandPrefix)
	if len(runes) == 0 {
		return '/'
	}
	return runes[0]
}

func applyEnv(cfg *Config) {
	cfg.Environment = envOrDefault("STARTUPMATCH_ENV", cfg.Environment)
	cfg.CommandPrefix = envOrDefault("STARTUPMATCH_COMMAND_PREFIX", cfg.CommandPrefix)

	cfg.Storage.Path = envOrDefault("STARTUPMATCH_DB_PATH", cfg.Storage.Path)
	cfg.Storage.Key = envOrDefault("STARTUPMATCH_STORAGE_KEY", cfg.Storage.Key)
	cfg.Storage.MaxValueBytes = envInt("STARTUPMATCH_MAX_VALUE_BYTES", cfg.Storage.MaxValueBytes)

	cfg.Timing.BatchWindow = envDuration("STARTUPMATCH_BATCH_WINDOW", cfg.Timing.BatchWindow)
	cfg.Timing.SearchDebounce = envDuration("STARTUPMATCH_SEARCH_DEBOUNCE", cfg.Timing.SearchDebounce)
	cfg.Timing.SearchMaxWait = envDuration("STARTUPMATCH_SEARCH_MAX_WAIT", cfg.Timing.SearchMaxWait)
	cfg.Timing.ThrottleLimit = envDuration("STARTUPMATCH_THROTTLE_LIMIT", cfg.Timing.ThrottleLimit)

	cfg.ViewCache.TTL = envDuration("STARTUPMATCH_VIEW_CACHE_TTL", cfg.ViewCache.TTL)
	cfg.ViewCache.Capacity = envInt("STARTUPMATCH_VIEW_CACHE_SIZE", cfg.ViewCache.Capacity)

	cfg.Breaker.MaxFailures = envInt("STARTUPMATCH_BREAKER_FAILURES", cfg.Breaker.MaxFailures)
	cfg.Breaker.Timeout = envDuration("STARTUPMATCH_BREAKER_TIMEOUT", cfg.Breaker.Timeout)

	cfg.Metrics.Addr = envOrDefault("STARTUPMATCH_METRICS_ADDR", cfg.Metrics.Addr)
	if envBool("STARTUPMATCH_METRICS_DISABLED", false) {
		cfg.Metrics.Addr = ""
	}

	cfg.Log.Level = envOrDefault("STARTUPMATCH_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = envOrDefault("STARTUPMATCH_LOG_FILE", cfg.Log.File)
}

func envOrDefault(key, value string) string {
	if env, ok := os.LookupEnv(key); ok {
		return env
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(env); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(key string, def int) int {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(env); err == nil {
			return parsed
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(env); err == nil {
			return parsed
		}
	}
	return def
}

// Package config provides configuration loading and validation for the
// ranking engine. It uses koanf to merge environment variables with
// optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the ranking engine.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Empty falls back to the in-memory stores.
	DatabaseURL string `koanf:"database_url"`

	// Redis (leaderboard cache). Empty disables the cache.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Leaderboard cache
	LeaderboardCacheEnabled bool          `koanf:"leaderboard_cache_enabled"`
	LeaderboardCacheTTL     time.Duration `koanf:"leaderboard_cache_ttl"`

	// Recalculation mode: RecalcModeInline scores on every vote,
	// RecalcModeBatch marks deals dirty for the recompute job.
	RecalcMode string `koanf:"recalc_mode"`

	// Batch recompute job
	RecomputeInterval time.Duration `koanf:"recompute_interval"`
	RecomputeTimeout  time.Duration `koanf:"recompute_timeout"`

	// Rank weight calibration file (JSON). Empty uses built-in defaults.
	CalibrationPath string `koanf:"calibration_path"`

	// Tracing
	TracingEnabled  bool   `koanf:"tracing_enabled"`
	TracingEndpoint string `koanf:"tracing_endpoint"`
	TracingInsecure bool   `koanf:"tracing_insecure"`
}

// Configuration validation errors.
var (
	ErrInvalidPort              = errors.New("PORT must be a valid integer")
	ErrInvalidDuration          = errors.New("duration values must be parseable (e.g. 30s, 5m)")
	ErrCacheRequiresRedis       = errors.New("LEADERBOARD_CACHE_ENABLED requires REDIS_ADDR")
	ErrTracingRequiresEndpoint  = errors.New("TRACING_ENABLED requires TRACING_ENDPOINT")
	ErrNonPositiveRecomputeTick = errors.New("RECOMPUTE_INTERVAL must be positive")
	ErrInvalidRecalcMode        = errors.New("RECALC_MODE must be inline or batch")
)

// Recalculation modes accepted by RECALC_MODE.
const (
	RecalcModeInline = "inline"
	RecalcModeBatch  = "batch"
)

// Default values for non-secret configuration.
const (
	DefaultPort                = 8081
	DefaultEnv                 = "development"
	DefaultLeaderboardCacheTTL = 30 * time.Second
	DefaultRecomputeInterval   = 30 * time.Second
	DefaultRecomputeTimeout    = 30 * time.Second
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if
// valid). If a config file path is provided and the file cannot be
// loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	redisDB, redisDBErr := getEnvIntOrDefault("REDIS_DB", k.Int("redis_db"), 0)
	if redisDBErr != nil {
		loadErrs = append(loadErrs, redisDBErr)
	}

	cacheTTL, ttlErr := getEnvDurationOrDefault("LEADERBOARD_CACHE_TTL",
		k.Duration("leaderboard_cache_ttl"), DefaultLeaderboardCacheTTL)
	if ttlErr != nil {
		loadErrs = append(loadErrs, ttlErr)
	}

	recomputeInterval, intervalErr := getEnvDurationOrDefault("RECOMPUTE_INTERVAL",
		k.Duration("recompute_interval"), DefaultRecomputeInterval)
	if intervalErr != nil {
		loadErrs = append(loadErrs, intervalErr)
	}

	recomputeTimeout, timeoutErr := getEnvDurationOrDefault("RECOMPUTE_TIMEOUT",
		k.Duration("recompute_timeout"), DefaultRecomputeTimeout)
	if timeoutErr != nil {
		loadErrs = append(loadErrs, timeoutErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                    port,
		Env:                     getEnvOrDefault("ENV", k.String("env"), DefaultEnv),
		DatabaseURL:             getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisAddr:               getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
		RedisPassword:           getEnvOrKoanf("REDIS_PASSWORD", k, "redis_password"),
		RedisDB:                 redisDB,
		LeaderboardCacheEnabled: getEnvBoolOrKoanf("LEADERBOARD_CACHE_ENABLED", k, "leaderboard_cache_enabled"),
		LeaderboardCacheTTL:     cacheTTL,
		RecalcMode:              getEnvOrDefault("RECALC_MODE", k.String("recalc_mode"), RecalcModeInline),
		RecomputeInterval:       recomputeInterval,
		RecomputeTimeout:        recomputeTimeout,
		CalibrationPath:         getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		TracingEnabled:          getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled"),
		TracingEndpoint:         getEnvOrKoanf("TRACING_ENDPOINT", k, "tracing_endpoint"),
		TracingInsecure:         getEnvBoolOrKoanf("TRACING_INSECURE", k, "tracing_insecure"),
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvBoolOrKoanf returns the environment variable as a bool if set,
// otherwise the koanf value. Unparseable env values read as false.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) bool {
	if val := os.Getenv(envKey); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false
		}
		return b
	}
	return k.Bool(koanfKey)
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidPort)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvDurationOrDefault returns the environment variable as a duration
// if set, otherwise the koanf value, or default. Returns an error if the
// environment variable is set but cannot be parsed.
func getEnvDurationOrDefault(envKey string, koanfVal time.Duration, defaultVal time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envKey, ErrInvalidDuration)
		}
		return d, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks configuration consistency.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.LeaderboardCacheEnabled && c.RedisAddr == "" {
		errs = append(errs, ErrCacheRequiresRedis)
	}
	if c.TracingEnabled && c.TracingEndpoint == "" {
		errs = append(errs, ErrTracingRequiresEndpoint)
	}
	if c.RecomputeInterval <= 0 {
		errs = append(errs, ErrNonPositiveRecomputeTick)
	}
	if c.RecalcMode != RecalcModeInline && c.RecalcMode != RecalcModeBatch {
		errs = append(errs, ErrInvalidRecalcMode)
	}

	return errs
}

// BatchRecalc reports whether votes defer scoring to the recompute job.
func (c *Config) BatchRecalc() bool {
	return c.RecalcMode == RecalcModeBatch
}

// IsProduction reports whether the engine runs in the production
// environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

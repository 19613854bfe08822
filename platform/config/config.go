// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides redis connection settings for the rotation cache,
// the personalization store and the tracker queue.
type RedisConfig interface {
	GetRedisURL() string
	GetTrackerQueueName() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// PersonalizationConfig provides settings for the personalization blender.
type PersonalizationConfig interface {
	IsPersonalizationEnabled() bool
	GetPersonalizationMaxTerms() int
}

// TimingConfig provides the soft per-operation query budget.
type TimingConfig interface {
	GetQueryBudget() time.Duration
}

// RotationConfig provides settings for the promotion rotation cache.
type RotationConfig interface {
	GetRotationTTL() time.Duration
	GetRotationInterval() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	RedisURL                string
	TrackerQueueName        string
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	PersonalizationEnabled  bool
	PersonalizationMaxTerms int
	QueryBudget             time.Duration
	RotationTTL             time.Duration
	RotationInterval        int
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string         { return c.RedisURL }
func (c *Config) GetTrackerQueueName() string { return c.TrackerQueueName }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// PersonalizationConfig implementation
func (c *Config) IsPersonalizationEnabled() bool  { return c.PersonalizationEnabled }
func (c *Config) GetPersonalizationMaxTerms() int { return c.PersonalizationMaxTerms }

// TimingConfig implementation
func (c *Config) GetQueryBudget() time.Duration { return c.QueryBudget }

// RotationConfig implementation
func (c *Config) GetRotationTTL() time.Duration { return c.RotationTTL }
func (c *Config) GetRotationInterval() int      { return c.RotationInterval }

// Load reads configuration from the environment. In development a .env file
// is loaded first so local runs work without exported variables.
func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	if strings.EqualFold(env, "development") {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Env:                     env,
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		TrackerQueueName:        getEnv("TRACKER_QUEUE", "tracker"),
		CORSAllowAll:            getBool("CORS_ALLOW_ALL", env == "development"),
		CORSOrigins:             getList("CORS_ORIGINS"),
		CORSAllowCreds:          getBool("CORS_ALLOW_CREDENTIALS", false),
		PersonalizationEnabled:  getBool("PERSONALIZATION_ENABLED", true),
		PersonalizationMaxTerms: getInt("PERSONALIZATION_MAX_TERMS", 40),
		QueryBudget:             getDuration("QUERY_BUDGET", 350*time.Millisecond),
		RotationTTL:             getDuration("ROTATION_TTL", 30*time.Minute),
		RotationInterval:        getInt("ROTATION_INTERVAL", 3),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// internal/config/config.go
// Configuration management using environment variables and optional config files

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the core and its demo wiring.
type Config struct {
	Environment string
	Database    DatabaseConfig
	Rating      RatingDefaults
	Generator   GeneratorBounds
	Cache       CacheConfig
}

// DatabaseConfig contains all database connection settings.
type DatabaseConfig struct {
	MySQL   MySQLConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
}

// MySQLConfig contains MySQL-specific settings for the mysqlstore adapter.
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoDBConfig contains MongoDB-specific settings for the audit sink.
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig contains Redis-specific settings for the rankings cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RatingDefaults mirrors a group's default settings (§3) when no
// per-group override is supplied.
type RatingDefaults struct {
	InitialRating    int
	KFactor          int
	EloDiff          float64
	AutoRelaxStep    float64
	AutoRelaxMaxDiff float64
}

// GeneratorBounds holds relax-iteration and per-round packing attempt
// bounds (§4.1). Only Validate reads them; the schedule generator uses its
// own MaxAttempts/MaxRoundAttempts constants.
type GeneratorBounds struct {
	MaxAttempts      int
	MaxRoundAttempts int
}

// CacheConfig configures the rankings read-through cache (§5).
type CacheConfig struct {
	RankingsTTL time.Duration
}

// Load reads configuration from environment variables, falling back to
// domain-appropriate defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				DSN:             getEnvOrDefault("MYSQL_DSN", ""),
				MaxOpenConns:    getIntOrDefault("MYSQL_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getIntOrDefault("MYSQL_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: getDurationOrDefault("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
			},
			MongoDB: MongoDBConfig{
				URI:      getEnvOrDefault("MONGO_URI", ""),
				Database: getEnvOrDefault("MONGO_DATABASE", "matchcore"),
			},
			Redis: RedisConfig{
				Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getIntOrDefault("REDIS_DB", 0),
			},
		},
		Rating: RatingDefaults{
			InitialRating:    getIntOrDefault("RATING_INITIAL", 1000),
			KFactor:          getIntOrDefault("RATING_K_FACTOR", 32),
			EloDiff:          getFloatOrDefault("RATING_ELO_DIFF", 0.05),
			AutoRelaxStep:    getFloatOrDefault("RATING_AUTO_RELAX_STEP", 0.01),
			AutoRelaxMaxDiff: getFloatOrDefault("RATING_AUTO_RELAX_MAX_DIFF", 0.25),
		},
		Generator: GeneratorBounds{
			MaxAttempts:      getIntOrDefault("GENERATOR_MAX_ATTEMPTS", 1000),
			MaxRoundAttempts: getIntOrDefault("GENERATOR_MAX_ROUND_ATTEMPTS", 100),
		},
		Cache: CacheConfig{
			RankingsTTL: getDurationOrDefault("RANKINGS_CACHE_TTL", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.Rating.KFactor <= 0 {
		return fmt.Errorf("RATING_K_FACTOR must be positive")
	}
	if c.Rating.EloDiff < 0 {
		return fmt.Errorf("RATING_ELO_DIFF must be non-negative")
	}
	if c.Generator.MaxAttempts <= 0 || c.Generator.MaxRoundAttempts <= 0 {
		return fmt.Errorf("generator attempt bounds must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the engine
type Config struct {
	Redis RedisConfig
	Log   LogConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	File string // rotating log file path; empty logs to stderr only
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
		},
		Log: LogConfig{
			File: getEnvOrDefault("ENGINE_LOG_FILE", "engine.log"),
		},
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

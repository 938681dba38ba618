package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything score-svc reads from the environment.
type Config struct {
	Port      string
	JWTSecret string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string

	// Housekeeping for run tokens.
	CleanupSchedule string
	TokenRetention  time.Duration

	// Submission rate-limit ceilings per rolling hour.
	UserSubmitLimit int64
	IPSubmitLimit   int64
}

func LoadConfig() *Config {
	return &Config{
		Port:      getEnvOrDefault("PORT", "8080"),
		JWTSecret: getEnvOrDefault("JWT_SECRET", "dev"),

		PostgresHost:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnvOrDefault("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnvOrDefault("POSTGRES_DB", "wingit"),
		PostgresSSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		CleanupSchedule: getEnvOrDefault("TOKEN_CLEANUP_SCHEDULE", "@every 1h"),
		TokenRetention:  getEnvDuration("TOKEN_RETENTION", 24*time.Hour),

		UserSubmitLimit: getEnvInt64("SUBMIT_LIMIT_USER", 100),
		IPSubmitLimit:   getEnvInt64("SUBMIT_LIMIT_IP", 500),
	}
}

// PostgresDSN assembles the gorm/pgx connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Site identity, used when composing invitation accept URLs
	SiteHost         string
	ContactEmail     string
	DefaultFromEmail string

	// Security
	TokenSecret         string
	InviteTokenTTLHours int

	// Application
	AppEnv   string
	LogLevel string

	// Feature limits
	MaxNeighborSuggestions int
	MaxBatchInvites        int

	// Capability flag: whether a notification dispatcher is wired in
	NotificationsEnabled bool
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "friends"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "friends_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SiteHost:         getEnv("SITE_HOST", "localhost"),
		ContactEmail:     getEnv("CONTACT_EMAIL", ""),
		DefaultFromEmail: getEnv("DEFAULT_FROM_EMAIL", ""),

		TokenSecret:         getEnv("TOKEN_SECRET", ""),
		InviteTokenTTLHours: getEnvInt("INVITE_TOKEN_TTL_HOURS", 168),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MaxNeighborSuggestions: getEnvInt("MAX_NEIGHBOR_SUGGESTIONS", 100),
		MaxBatchInvites:        getEnvInt("MAX_BATCH_INVITES", 20),

		NotificationsEnabled: getEnvBool("NOTIFICATIONS_ENABLED", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET is required")
	}
	if len(c.TokenSecret) < 32 {
		return fmt.Errorf("TOKEN_SECRET must be at least 32 characters")
	}
	if c.InviteTokenTTLHours <= 0 {
		return fmt.Errorf("INVITE_TOKEN_TTL_HOURS must be positive")
	}
	if c.MaxBatchInvites <= 0 {
		return fmt.Errorf("MAX_BATCH_INVITES must be positive")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.SiteHost == "localhost" {
		return fmt.Errorf("SITE_HOST must be set in production")
	}
	if c.DefaultFromEmail == "" {
		return fmt.Errorf("DEFAULT_FROM_EMAIL must be set in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetInviteTokenTTL() time.Duration {
	return time.Duration(c.InviteTokenTTLHours) * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

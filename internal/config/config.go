package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Telegram
	BotToken string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Security
	SuperAdminTgID int64

	// Application
	AppEnv      string
	LogLevel    string
	MetricsAddr string
	WorkerCount int

	// Rate Limiting
	RateLimitPerUser int

	// Sessions
	InactivitySeconds int
	AntiRepeatRounds  int
	StaleSessionHours int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken:   getEnv("BOT_TOKEN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "anonchat"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "anonchat_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		WorkerCount: getEnvInt("WORKER_COUNT", 10),

		RateLimitPerUser: getEnvInt("RATE_LIMIT_PER_USER", 30),

		InactivitySeconds: getEnvInt("INACTIVITY_SECONDS", 180),
		AntiRepeatRounds:  getEnvInt("ANTI_REPEAT_ROUNDS", 2),
		StaleSessionHours: getEnvInt("STALE_SESSION_HOURS", 24),
	}

	// Parse super admin telegram ID
	superAdminStr := getEnv("SUPER_ADMIN_TELEGRAM_ID", "")
	if superAdminStr != "" {
		id, err := strconv.ParseInt(superAdminStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SUPER_ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.SuperAdminTgID = id
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.InactivitySeconds <= 0 {
		return fmt.Errorf("INACTIVITY_SECONDS must be positive")
	}
	if c.AntiRepeatRounds <= 0 {
		return fmt.Errorf("ANTI_REPEAT_ROUNDS must be positive")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	if c.RateLimitPerUser <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_USER must be positive")
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
	if c.SuperAdminTgID == 0 {
		return fmt.Errorf("SUPER_ADMIN_TELEGRAM_ID must be set in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetInactivityWindow() time.Duration {
	return time.Duration(c.InactivitySeconds) * time.Second
}

// GetStaleSessionAge is the age after which an active session left over from
// a previous run is closed at startup. Zero disables the sweep.
func (c *Config) GetStaleSessionAge() time.Duration {
	if c.StaleSessionHours <= 0 {
		return 0
	}
	return time.Duration(c.StaleSessionHours) * time.Hour
}

func (c *Config) IsSuperAdmin(telegramID int64) bool {
	return c.SuperAdminTgID != 0 && c.SuperAdminTgID == telegramID
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

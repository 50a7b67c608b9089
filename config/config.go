package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the Telegram backend service
type Config struct {
	Telegram TelegramConfig
	Store    StoreConfig
	Logging  LoggingConfig
	Service  ServiceConfig
}

// TelegramConfig holds Telegram MTProto configuration
type TelegramConfig struct {
	APIID   int
	APIHash string
}

// StoreBackend selects the session store implementation
type StoreBackend string

const (
	StoreBackendFile     StoreBackend = "file"
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendPostgres StoreBackend = "postgres"
)

// StoreConfig holds session store configuration
type StoreConfig struct {
	Backend    StoreBackend
	SessionDir string
	RedisAddr  string
	RedisDB    int
	DSN        string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name            string
	Port            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	apiID, err := strconv.Atoi(getEnv("TELEGRAM_API_ID", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_API_ID: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			APIID:   apiID,
			APIHash: getEnv("TELEGRAM_API_HASH", ""),
		},
		Store: StoreConfig{
			Backend:    StoreBackend(getEnv("SESSION_STORE", "file")),
			SessionDir: getEnv("SESSION_DIR", "./sessions"),
			RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:    redisDB,
			DSN:        getEnv("DATABASE_DSN", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name:            getEnv("SERVICE_NAME", "telegram-backend"),
			Port:            getEnv("SERVICE_PORT", "8001"),
			AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
			ShutdownTimeout: shutdownTimeout,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 {
		return fmt.Errorf("TELEGRAM_API_ID is required")
	}

	if c.Telegram.APIHash == "" {
		return fmt.Errorf("TELEGRAM_API_HASH is required")
	}

	switch c.Store.Backend {
	case StoreBackendFile, StoreBackendRedis:
	case StoreBackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres session store")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE backend: %s", c.Store.Backend)
	}

	return nil
}

// Result is fx.Out struct for providing config dependencies
type Result struct {
	fx.Out

	Config         *Config
	TelegramConfig *TelegramConfig
	StoreConfig    *StoreConfig
	LoggingConfig  *LoggingConfig
	ServiceConfig  *ServiceConfig
}

// Out returns fx-compatible config result
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:         cfg,
		TelegramConfig: &cfg.Telegram,
		StoreConfig:    &cfg.Store,
		LoggingConfig:  &cfg.Logging,
		ServiceConfig:  &cfg.Service,
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

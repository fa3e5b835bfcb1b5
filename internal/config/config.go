package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the service.
type Config struct {
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Dispatch DispatchConfig
	Webhook  WebhookConfig
	Server   ServerConfig
}

// HTTPConfig holds HTTP server related configuration.
type HTTPConfig struct {
	Port string
}

// PostgresConfig holds database connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the formatted connection string for pgx.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DispatchConfig holds dispatch batch settings.
type DispatchConfig struct {
	Interval   time.Duration
	BatchLimit int
	LockTTL    time.Duration
}

// WebhookConfig stores outbound notification provider details.
type WebhookConfig struct {
	URL     string
	AuthKey string
}

// ServerConfig stores general server runtime configuration.
type ServerConfig struct {
	ShutdownTimeout time.Duration
}

// Load builds configuration by reading environment variables with sane
// defaults. A .env file in the working directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	pgPort, err := getInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
	}

	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	batchLimit, err := getInt("DISPATCH_BATCH_LIMIT", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_BATCH_LIMIT: %w", err)
	}
	if batchLimit <= 0 || batchLimit > 100 {
		batchLimit = 100
	}

	intervalStr := getString("DISPATCH_INTERVAL", "2m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_INTERVAL: %w", err)
	}
	if interval < 30*time.Second {
		interval = 30 * time.Second
	}

	lockTTLStr := getString("DISPATCH_LOCK_TTL", "30s")
	lockTTL, err := time.ParseDuration(lockTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_LOCK_TTL: %w", err)
	}

	shutdownTimeoutStr := getString("SERVER_SHUTDOWN_TIMEOUT", "10s")
	shutdownTimeout, err := time.ParseDuration(shutdownTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Port: getString("HTTP_PORT", "8084"),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "postgres"),
			Port:     pgPort,
			User:     getString("POSTGRES_USER", "appuser"),
			Password: getString("POSTGRES_PASSWORD", "appsecret"),
			DBName:   getString("POSTGRES_DB", "futuresend"),
			SSLMode:  getString("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", "redis:6379"),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Dispatch: DispatchConfig{
			Interval:   interval,
			BatchLimit: batchLimit,
			LockTTL:    lockTTL,
		},
		Webhook: WebhookConfig{
			URL:     getString("WEBHOOK_URL", ""),
			AuthKey: getString("WEBHOOK_AUTH_KEY", ""),
		},
		Server: ServerConfig{
			ShutdownTimeout: shutdownTimeout,
		},
	}

	return cfg, nil
}

func getString(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) (int, error) {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	}
	return def, nil
}

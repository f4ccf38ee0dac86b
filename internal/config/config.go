package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level settings resolved from the environment.
type Config struct {
	Environment string
	HTTPAddr    string
	ServiceName string

	Database Database
	Realtime Realtime

	SnowflakeNode int64
}

// Database selects the gorm driver and connection string.
type Database struct {
	Driver string // "postgres" or "sqlite"
	DSN    string
}

// Realtime tunes the websocket distribution layer.
type Realtime struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	SendQueueLen int
}

// Load reads configuration from the environment, honouring an optional .env
// file for local development.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getString("PROCURA_ENV", "development"),
		HTTPAddr:    getString("PROCURA_HTTP_ADDR", ":8080"),
		ServiceName: getString("PROCURA_SERVICE_NAME", "procura"),
		Database: Database{
			Driver: strings.ToLower(getString("PROCURA_DB_DRIVER", "sqlite")),
			DSN:    getString("PROCURA_DB_DSN", "file:procura.db?_pragma=foreign_keys(1)"),
		},
		Realtime: Realtime{
			WriteTimeout: getDuration("PROCURA_WS_WRITE_TIMEOUT", 10*time.Second),
			PingInterval: getDuration("PROCURA_WS_PING_INTERVAL", 30*time.Second),
			SendQueueLen: getInt("PROCURA_WS_SEND_QUEUE", 64),
		},
		SnowflakeNode: int64(getInt("PROCURA_SNOWFLAKE_NODE", 1)),
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Catalog CatalogConfig
	Store   StoreConfig
	Ingest  IngestConfig
	Queue   QueueConfig
	Log     LogConfig
}

// CatalogConfig holds reference data configuration
type CatalogConfig struct {
	Path string
}

// StoreConfig holds job store configuration
type StoreConfig struct {
	Path string
}

// IngestConfig holds directory watch configuration
type IngestConfig struct {
	WatchDirs   []string
	Debounce    time.Duration
	InitialScan bool
}

// QueueConfig holds worker pool configuration
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", "./Medicine_Details.csv"),
		},
		Store: StoreConfig{
			Path: getEnv("DB_PATH", "./data/extract.db"),
		},
		Ingest: IngestConfig{
			WatchDirs:   getEnvAsList("WATCH_DIRS", nil),
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
			InitialScan: getEnvAsBool("WATCH_INITIAL_SCAN", true),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("WORKERS", 4),
			Size:           getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("CATALOG_PATH", c.Catalog.Path, Required).
		Field("DB_PATH", c.Store.Path, Required).
		Field("WORKERS", c.Queue.Workers, Positive).
		Field("QUEUE_SIZE", c.Queue.Size, Positive).
		Field("LOG_FORMAT", c.Log.Format, OneOf("text", "json"))
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

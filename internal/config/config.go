package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type AppConfig struct {
	Port string

	// HTTPTimeout bounds every outbound call to Nominatim and NWS.
	HTTPTimeout time.Duration
	UserAgent   string

	NominatimBaseURL string
	NWSBaseURL       string

	StoreBackend   string
	RedisURL       string
	SQLitePath     string
	StoreNamespace string

	// MonitorInterval controls how often saved locations are polled (0 = off).
	MonitorInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	timeout, err := getenvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive")
	}
	cfg.HTTPTimeout = timeout

	cfg.UserAgent = getenvDefault("USER_AGENT", "weather-compare (https://github.com/i474232898/weather-compare)")
	cfg.NominatimBaseURL = os.Getenv("NOMINATIM_BASE_URL")
	cfg.NWSBaseURL = os.Getenv("NWS_BASE_URL")

	cfg.StoreBackend = strings.ToLower(getenvDefault("STORE_BACKEND", BackendMemory))
	switch cfg.StoreBackend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: use memory, redis or sqlite", cfg.StoreBackend)
	}
	cfg.RedisURL = getenvDefault("REDIS_URL", "redis://localhost:6379/0")
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "weather-compare.db")
	cfg.StoreNamespace = os.Getenv("STORE_NAMESPACE")

	interval, err := getenvDuration("MONITOR_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	if interval < 0 {
		return nil, fmt.Errorf("invalid MONITOR_INTERVAL: must not be negative")
	}
	cfg.MonitorInterval = interval

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvDuration accepts Go durations ("90s") and bare integers as seconds.
func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

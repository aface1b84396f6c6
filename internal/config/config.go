package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// DefaultAPIBaseURL is used by client tooling when API_BASE_URL is unset.
const DefaultAPIBaseURL = "http://localhost:8080/api"

type Config struct {
	ServerPort      string
	MongoURL        string
	MongoDatabase   string
	ValkeyAddr      string
	CacheKeyPrefix  string
	CORSAllowOrigin string
	APIBaseURL      string
	RefreshInterval time.Duration
	FetchRetries    int
	FetchBackoff    time.Duration
}

func Load() *Config {
	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		MongoURL:        requireEnv("MONGO_URL"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "pk-domains-v3"),
		ValkeyAddr:      getEnv("VALKEY_ADDR", ""),
		CacheKeyPrefix:  getEnv("CACHE_KEY_PREFIX", "ssl_guardian"),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "http://localhost:3000"),
		APIBaseURL:      getEnv("API_BASE_URL", DefaultAPIBaseURL),
		RefreshInterval: getDuration("REFRESH_INTERVAL", 5*time.Minute),
		FetchRetries:    getInt("FETCH_RETRIES", 2),
		FetchBackoff:    getDuration("FETCH_BACKOFF", 2*time.Second),
	}
}

// LoadClient is Load for client-side tooling that talks to the API but
// never touches the database, so MONGO_URL is not required.
func LoadClient() *Config {
	return &Config{
		APIBaseURL:      getEnv("API_BASE_URL", DefaultAPIBaseURL),
		RefreshInterval: getDuration("REFRESH_INTERVAL", 5*time.Minute),
		FetchRetries:    getInt("FETCH_RETRIES", 2),
		FetchBackoff:    getDuration("FETCH_BACKOFF", 2*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration for env var, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer for env var, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

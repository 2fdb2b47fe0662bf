package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend names accepted in STORAGE_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	StorageBackend string
	DataDir        string // file backend
	SQLitePath     string // sqlite backend
	RedisURL       string // redis backend

	// AuthKeyHash is a bcrypt hash of the API key required on mutating
	// routes. Empty disables authentication.
	AuthKeyHash string

	GeminiBin     string
	GeminiModels  []string
	GeminiTimeout time.Duration

	LockTimeout     time.Duration
	CleanupInterval time.Duration
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		StorageBackend:  getEnv("STORAGE_BACKEND", BackendFile),
		DataDir:         getEnv("DATA_DIR", "./data/chats"),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/chats.db"),
		RedisURL:        os.Getenv("REDIS_URL"),
		AuthKeyHash:     os.Getenv("AUTH_KEY_HASH"),
		GeminiBin:       getEnv("GEMINI_BIN", "gemini"),
		GeminiTimeout:   getDuration("GEMINI_TIMEOUT", 2*time.Minute),
		LockTimeout:     getDuration("LOCK_TIMEOUT", 5*time.Second),
		CleanupInterval: getDuration("CLEANUP_INTERVAL", time.Hour),
	}

	// Parse model fallback chain (comma-separated, tried in order)
	if models := os.Getenv("GEMINI_MODELS"); models != "" {
		for _, entry := range strings.Split(models, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.GeminiModels = append(cfg.GeminiModels, entry)
			}
		}
	}

	switch cfg.StorageBackend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		panic("unknown STORAGE_BACKEND: " + cfg.StorageBackend)
	}
	if cfg.StorageBackend == BackendRedis && cfg.RedisURL == "" {
		panic("REDIS_URL is required with the redis backend")
	}
	if cfg.Env == "production" && cfg.StorageBackend == BackendMemory {
		panic("the memory backend does not survive restarts; pick file, sqlite, or redis in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Plain numbers are treated as seconds.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

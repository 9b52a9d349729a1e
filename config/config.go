package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// HTTP configuration
	Port           string
	AllowedOrigins []string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Telegram configuration
	BotToken       string
	InitDataMaxAge time.Duration // 0 disables the auth_date freshness check

	// Session configuration
	SessionSecret     string
	SessionTTL        time.Duration
	AllowUserIDHeader bool // Accept the legacy X-User-Id header as identity

	// Game configuration
	StartingBalance int64
	CatalogPath     string // Optional override of the embedded catalog

	// Redis configuration (top players cache)
	RedisAddr     string
	RedisPassword string
	TopCacheTTL   time.Duration

	// NATS configuration (domain event forwarding)
	NATSServers string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// Get returns the global configuration instance
func Get() *Config {
	mu.RLock()
	if instance != nil {
		defer mu.RUnlock()
		return instance
	}
	mu.RUnlock()

	once.Do(func() {
		cfg, err := load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		mu.Lock()
		instance = cfg
		mu.Unlock()
	})

	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		Port:           getEnvWithDefault("PORT", "8080"),
		AllowedOrigins: splitList(getEnvWithDefault("ALLOWED_ORIGINS", "*")),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		BotToken: os.Getenv("BOT_TOKEN"),

		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SessionTTL:        24 * time.Hour,
		AllowUserIDHeader: os.Getenv("ALLOW_USER_ID_HEADER") == "true",

		StartingBalance: 0,
		CatalogPath:     os.Getenv("CATALOG_PATH"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		TopCacheTTL:   30 * time.Second,

		NATSServers: os.Getenv("NATS_SERVERS"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		parsed, err := strconv.ParseInt(balance, 10, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("STARTING_BALANCE must be a non-negative integer, got %q", balance)
		}
		config.StartingBalance = parsed
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		config.SessionTTL = parsed
	}
	if maxAge := os.Getenv("INIT_DATA_MAX_AGE"); maxAge != "" {
		parsed, err := time.ParseDuration(maxAge)
		if err != nil {
			return nil, fmt.Errorf("invalid INIT_DATA_MAX_AGE: %w", err)
		}
		config.InitDataMaxAge = parsed
	}
	if ttl := os.Getenv("TOP_CACHE_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid TOP_CACHE_TTL: %w", err)
		}
		config.TopCacheTTL = parsed
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	// The session secret falls back to the bot token so a minimal deployment
	// only needs BOT_TOKEN and DATABASE_URL.
	if config.SessionSecret == "" {
		config.SessionSecret = config.BotToken
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.BotToken == "" {
			return nil, fmt.Errorf("BOT_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewTestConfig creates a config instance for testing with sensible defaults
func NewTestConfig() *Config {
	return &Config{
		Port:              "8080",
		AllowedOrigins:    []string{"*"},
		BotToken:          "123456:TEST-BOT-TOKEN",
		SessionSecret:     "test-session-secret",
		SessionTTL:        time.Hour,
		AllowUserIDHeader: false,
		StartingBalance:   0,
		TopCacheTTL:       30 * time.Second,
		LogLevel:          "debug",
		LogFormat:         "text",
		Environment:       "test",
	}
}

// SetTestConfig sets a custom config instance for testing
// This should only be used in tests
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
	once = sync.Once{}
	once.Do(func() {})
}

// ResetConfig resets the config singleton (useful for tests)
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

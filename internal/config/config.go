// Package config provides configuration management for the xhub service.
// It loads settings from environment variables with sensible defaults and
// validates them before the server starts.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - TLS_CERT, TLS_KEY: Serve HTTPS when both are set
//
// Signature Settings:
//   - XHUB_SECRET: Shared webhook secret (required)
//   - XHUB_HASHES: Comma-separated allow-list, default first (default: sha256)
//   - XHUB_ALLOW_UNSIGNED_GET: Let unsigned GET requests through (default: false)
//
// Delivery Guard:
//   - REDIS_ADDRESS: Redis server address; empty disables the guard
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_KEY_PREFIX: Key prefix for delivery IDs (default: xhub:)
//   - DELIVERY_TTL: How long a delivery ID is remembered (default: 24h)
//
// Example usage:
//
//	_ = godotenv.Load()
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"xhub-signature/internal/signature"
)

// Config holds all configuration values for the xhub service.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)
	TLSCert  string // Path to TLS certificate
	TLSKey   string // Path to TLS private key

	// Signature settings
	Secret           string                  // Shared webhook secret
	Hashes           []signature.AlgorithmID // Allow-list, default first
	AllowUnsignedGet bool                    // Let unsigned GET requests through

	// Redis configuration for the delivery guard
	RedisAddress   string // Redis server address (host:port)
	RedisPassword  string // Redis authentication password
	RedisDB        string // Redis database number (0-15)
	RedisKeyPrefix string // Prefix for delivery keys
	DeliveryTTL    string // Delivery ID retention (e.g., "24h")
}

// Load creates a new Config with values from environment variables.
// It does not validate; call Validate on the result.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TLSCert:  getEnv("TLS_CERT", ""),
		TLSKey:   getEnv("TLS_KEY", ""),

		Secret:           getEnv("XHUB_SECRET", ""),
		Hashes:           signature.ParseAlgorithms(getEnv("XHUB_HASHES", "sha256")),
		AllowUnsignedGet: getBoolEnv("XHUB_ALLOW_UNSIGNED_GET", false),

		RedisAddress:   getEnv("REDIS_ADDRESS", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnv("REDIS_DB", "0"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "xhub:"),
		DeliveryTTL:    getEnv("DELIVERY_TTL", "24h"),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
// Unparseable values fall back to the default.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks that required values are present and well formed.
//
// The signature engine only checks allow-list entries when it uses them, so
// unknown algorithm names are rejected here, before the server starts.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("XHUB_SECRET environment variable is required")
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if len(c.Hashes) == 0 {
		return fmt.Errorf("XHUB_HASHES must name at least one algorithm")
	}
	for _, h := range c.Hashes {
		if !signature.IsSupported(h) {
			return fmt.Errorf("XHUB_HASHES contains unsupported algorithm %q (supported: sha1, sha256)", h)
		}
	}

	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}

	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if ttl, err := time.ParseDuration(c.DeliveryTTL); err != nil || ttl <= 0 {
			return fmt.Errorf("DELIVERY_TTL must be a positive duration (e.g., '24h')")
		}
	}

	return nil
}

// RedisDBNumber returns RedisDB as an int. Call after Validate.
func (c *Config) RedisDBNumber() int {
	db, _ := strconv.Atoi(c.RedisDB)
	return db
}

// DeliveryTTLDuration returns DeliveryTTL as a duration. Call after Validate.
func (c *Config) DeliveryTTLDuration() time.Duration {
	ttl, _ := time.ParseDuration(c.DeliveryTTL)
	return ttl
}

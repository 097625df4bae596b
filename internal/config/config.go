// Package config loads the process-wide configuration from the
// environment. It is populated once at startup and passed explicitly;
// nothing else in the service reads environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	Debug     bool
	Version   string
	Host      string
	Port      string
	SecretKey string

	// MaxFileSizeMB caps upload size; MaxConcurrent bounds the number
	// of conversions running at once.
	MaxFileSizeMB int
	MaxConcurrent int
}

// Load reads an optional .env file, then the environment. The only
// required setting is APP_SECRET_KEY; everything else has a default.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Debug:         parseBool(os.Getenv("APP_DEBUG")),
		Version:       getEnv("APP_VERSION", "dev"),
		Host:          getEnv("APP_HOST", "0.0.0.0"),
		Port:          getEnv("APP_PORT", "8080"),
		SecretKey:     os.Getenv("APP_SECRET_KEY"),
		MaxFileSizeMB: getEnvInt("APP_MAX_FILE_SIZE_MB", 10),
		MaxConcurrent: getEnvInt("APP_MAX_CONCURRENT_CONVERSIONS", 4),
	}

	if cfg.SecretKey == "" {
		return nil, errors.New("APP_SECRET_KEY must be set")
	}
	if cfg.MaxFileSizeMB <= 0 {
		return nil, errors.New("APP_MAX_FILE_SIZE_MB must be positive")
	}
	if cfg.MaxConcurrent <= 0 {
		return nil, errors.New("APP_MAX_CONCURRENT_CONVERSIONS must be positive")
	}

	return cfg, nil
}

// MaxFileSizeBytes returns the upload cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "t", "y", "yes":
		return true
	}
	return false
}

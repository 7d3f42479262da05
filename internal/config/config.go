// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the full service configuration.
type Config struct {
	Port          int
	DatabaseURL   string
	DefaultOrigin string
	JWTSecret     string
	OCRBaseURL    string

	BlobEndpoint  string
	BlobAccessKey string
	BlobSecretKey string
	BlobBucket    string
	BlobUseSSL    bool
}

// Load reads configuration from the environment. Only the database URL is
// required; blob store, OCR backend and JWT secret are optional and the
// affected features degrade when unset.
func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	port := 8080
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT value %q: %w", v, err)
		}
		port = p
	}

	useSSL := false
	if v := os.Getenv("BLOB_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BLOB_USE_SSL value %q: %w", v, err)
		}
		useSSL = b
	}

	return &Config{
		Port:          port,
		DatabaseURL:   databaseURL,
		DefaultOrigin: getEnv("DEFAULT_ORIGIN", "*"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		OCRBaseURL:    os.Getenv("OCR_BASE_URL"),
		BlobEndpoint:  os.Getenv("BLOB_ENDPOINT"),
		BlobAccessKey: os.Getenv("BLOB_ACCESS_KEY"),
		BlobSecretKey: os.Getenv("BLOB_SECRET_KEY"),
		BlobBucket:    getEnv("BLOB_BUCKET", "profile-uploads"),
		BlobUseSSL:    useSSL,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

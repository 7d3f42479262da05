package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RouteConfig is the rate limit applied to one route family. Path matching is
// substring-based, consistent with how the dispatcher classifies routes.
type RouteConfig struct {
	Path   string
	Method string // empty matches any method
	Limit  int    // requests per window; <= 0 means unlimited
	Window time.Duration
	Burst  int // burst capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Routes          []RouteConfig
}

// LoadConfig reads rate limiting settings from the environment.
func LoadConfig() *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 300),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Routes:          DefaultRouteConfigs(),
	}
}

// DefaultRouteConfigs returns the per-route limits. The OCR route is the
// strictest tier: each call can hold a connection open for minutes.
func DefaultRouteConfigs() []RouteConfig {
	return []RouteConfig{
		{Path: "/ocr", Method: "POST", Limit: 5, Window: time.Hour, Burst: 2},
		{Path: "/upload-url", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/download-url", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/health", Limit: 0},
	}
}

// matchRoute finds the first route config whose path appears in the request
// path and whose method matches.
func matchRoute(path, method string, routes []RouteConfig) *RouteConfig {
	for i := range routes {
		rc := &routes[i]
		if !strings.Contains(path, rc.Path) {
			continue
		}
		if rc.Method != "" && rc.Method != method {
			continue
		}
		return rc
	}
	return nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

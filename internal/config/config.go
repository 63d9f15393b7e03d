// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the connector configuration.
type Config struct {
	BrokerURL    string        // broker base URL (e.g. http://localhost:8082)
	TimeZone     string        // time zone applied to time-group extraction (default "UTC")
	QueryTimeout time.Duration // per-query HTTP timeout (default 60s)
	LogLevel     string        // log level: debug, info, warn, error (default "info")

	// Rate limiting of broker queries
	RateLimitRPS   float64 // sustained queries per second (default 10)
	RateLimitBurst int     // burst capacity (default 20)

	// Dimensions present in the schema but never indexed, per datasource
	// configuration. These can never be grouped on.
	NotIndexedDimensions []string

	// Structures maps dimension name to the probabilistic structure column
	// built from it at indexing time, supplementing naming-convention
	// detection.
	Structures map[string]string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.BrokerURL == "" {
		return fmt.Errorf("DRUID_BROKER_URL must be set")
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		BrokerURL:      os.Getenv("DRUID_BROKER_URL"),
		TimeZone:       os.Getenv("DRUID_TIME_ZONE"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		QueryTimeout:   60 * time.Second,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}

	if cfg.TimeZone == "" {
		cfg.TimeZone = "UTC"
	}
	if v := os.Getenv("DRUID_QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse DRUID_QUERY_TIMEOUT: %w", err)
		}
		cfg.QueryTimeout = d
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("DRUID_NOT_INDEXED"); v != "" {
		cols := strings.Split(v, ",")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		cfg.NotIndexedDimensions = compactNonEmpty(cols)
	}
	if v := os.Getenv("DRUID_STRUCTURES"); v != "" {
		// Comma-separated dim=structure pairs.
		cfg.Structures = make(map[string]string)
		for _, pair := range strings.Split(v, ",") {
			dim, structure, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || dim == "" || structure == "" {
				return nil, fmt.Errorf("malformed DRUID_STRUCTURES entry %q", pair)
			}
			cfg.Structures[dim] = structure
		}
	}

	return cfg, nil
}

// compactNonEmpty drops empty strings from a slice.
func compactNonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

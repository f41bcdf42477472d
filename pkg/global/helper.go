package global

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrStoreUnavailable is returned by storage layers that were never configured
// or cannot currently be reached.
var ErrStoreUnavailable = errors.New("backing store is not configured")

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func GetEnvBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func GetDefaultTimer() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// NormalizeBaseURL prefixes a scheme-less host with https:// and drops trailing slashes.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}
	return raw
}

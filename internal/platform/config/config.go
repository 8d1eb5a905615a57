package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	PayoutBaseURL  string
	PayoutClientID string
	PayoutSecret   string
	PayoutTimeout  time.Duration

	// Requests stuck in processing longer than this are swept to failed
	// by the worker's payout reconciler.
	PayoutStuckAfter time.Duration

	WorkerPollInterval time.Duration

	EnablePayoutReconciler bool
	EnableOutboxRelay      bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "testquest"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		PayoutBaseURL:  envString("PAYOUT_BASE_URL", "https://api-m.sandbox.paypal.com"),
		PayoutClientID: os.Getenv("PAYOUT_CLIENT_ID"),
		PayoutSecret:   os.Getenv("PAYOUT_SECRET"),
		PayoutTimeout:  envDuration("PAYOUT_TIMEOUT", 30*time.Second),

		PayoutStuckAfter:   envDuration("PAYOUT_STUCK_AFTER", 24*time.Hour),
		WorkerPollInterval: envDuration("WORKER_POLL_INTERVAL", 15*time.Second),

		EnablePayoutReconciler: envBool("ENABLE_PAYOUT_RECONCILER", true),
		EnableOutboxRelay:      envBool("ENABLE_OUTBOX_RELAY", true),
	}, nil
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

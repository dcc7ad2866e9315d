// Package config centralises configuration parsing for the devpulse service.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures runtime configuration values for the devpulse API.
type Config struct {
	HTTPAddress          string
	PresenceStoreURL     string // durable store binding for the presence record; empty = in-memory fallback
	CommitStoreURL       string // durable store binding for the commit cache; empty = in-memory fallback
	AutomationWebhookURL string // outbound notification webhook; empty = forwarding disabled
	WebhookTimeout       time.Duration
	KafkaBrokers         []string // empty = activity event publishing disabled
	ActivityTopic        string
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:          getEnv("HTTP_ADDRESS", ":8080"),
		PresenceStoreURL:     getEnv("PRESENCE_STORE_URL", ""),
		CommitStoreURL:       getEnv("COMMIT_STORE_URL", ""),
		AutomationWebhookURL: getEnv("AUTOMATION_WEBHOOK_URL", ""),
		WebhookTimeout:       getDurationEnv("WEBHOOK_TIMEOUT", 5*time.Second),
		ActivityTopic:        getEnv("ACTIVITY_TOPIC", "dev_activity_log"),
	}

	cfg.KafkaBrokers = splitAndTrim(getEnv("KAFKA_BROKERS", ""))
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

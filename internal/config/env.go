package config

import (
	"os"
	"strconv"
)

// Environment overrides, applied after file loading. Each variable maps to
// exactly one field so deployments can configure secrets without a file.
const (
	envProvider   = "SELFHEAL_PROVIDER"
	envAPIKey     = "SELFHEAL_API_KEY"
	envBaseURL    = "SELFHEAL_BASE_URL"
	envModel      = "SELFHEAL_MODEL"
	envThreshold  = "SELFHEAL_CONFIDENCE_THRESHOLD"
	envNoFallback = "SELFHEAL_DISABLE_FALLBACK"
	envDBPath     = "SELFHEAL_DB_PATH"
	envWebhookURL = "SELFHEAL_WEBHOOK_URL"
	envServerAddr = "SELFHEAL_ADDR"
	envTestsDir   = "SELFHEAL_TESTS_DIR"
	envLogLevel   = "SELFHEAL_LOG_LEVEL"
)

func (c *Config) applyEnv() {
	if v := os.Getenv(envProvider); v != "" {
		c.Service.Provider = v
	}
	if v := os.Getenv(envAPIKey); v != "" {
		c.Service.APIKey = v
	}
	if v := os.Getenv(envBaseURL); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv(envModel); v != "" {
		c.Service.Model = v
	}
	if v := os.Getenv(envThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			c.Healing.ConfidenceThreshold = f
		}
	}
	if v := os.Getenv(envNoFallback); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Healing.DisableFallback = b
		}
	}
	if v := os.Getenv(envDBPath); v != "" {
		c.History.DBPath = v
	}
	if v := os.Getenv(envWebhookURL); v != "" {
		c.Notify.WebhookURL = v
	}
	if v := os.Getenv(envServerAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(envTestsDir); v != "" {
		c.Tests.Dir = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		c.Logging.Level = v
	}
}

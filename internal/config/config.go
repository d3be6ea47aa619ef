// Package config loads selfheal configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all selfheal configuration.
type Config struct {
	Service Service `yaml:"service"`
	Healing Healing `yaml:"healing"`
	History History `yaml:"history"`
	Notify  Notify  `yaml:"notify"`
	Server  Server  `yaml:"server"`
	Tests   Tests   `yaml:"tests"`
	Logging Logging `yaml:"logging"`
}

// Service configures the external code-generation service.
type Service struct {
	Provider    string  `yaml:"provider"` // openai, anthropic, gemini
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Timeout     string  `yaml:"timeout"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Healing tunes the engine.
type Healing struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	MinSimilarity       float64 `yaml:"min_similarity"`
	DisableFallback     bool    `yaml:"disable_fallback"`
}

// History configures attempt persistence.
type History struct {
	Enable bool   `yaml:"enable"`
	DBPath string `yaml:"db_path"`
}

// Notify configures the observability sink.
type Notify struct {
	WebhookURL string `yaml:"webhook_url"`
	Timeout    string `yaml:"timeout"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	IdleTimeout  string `yaml:"idle_timeout"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// Tests configures the test-source provider.
type Tests struct {
	Dir string `yaml:"dir"`
}

// Logging configures log output.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Service: Service{
			Provider:    "openai",
			Timeout:     "60s",
			Temperature: 0.1,
			MaxTokens:   4096,
		},
		Healing: Healing{
			ConfidenceThreshold: 0.75,
			MinSimilarity:       0.6,
		},
		History: History{
			Enable: true,
			DBPath: ".selfheal/healing.db",
		},
		Notify: Notify{
			Timeout: "5s",
		},
		Server: Server{
			Addr:         ":8090",
			ReadTimeout:  "30s",
			WriteTimeout: "60s",
			IdleTimeout:  "120s",
			MaxBodyBytes: 1 << 20,
		},
		Tests: Tests{
			Dir: "tests",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path (optional), layers it over the defaults, then applies
// environment overrides. A missing file is not an error: defaults plus
// environment apply. A .env file in the working directory is loaded first
// when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// TimeoutDuration parses the service timeout, defaulting to 60s.
func (s Service) TimeoutDuration() time.Duration {
	return parseDuration(s.Timeout, 60*time.Second)
}

// TimeoutDuration parses the notify timeout, defaulting to 5s.
func (n Notify) TimeoutDuration() time.Duration {
	return parseDuration(n.Timeout, 5*time.Second)
}

// Durations returns the server's parsed read, write, and idle timeouts.
func (s Server) Durations() (read, write, idle time.Duration) {
	return parseDuration(s.ReadTimeout, 30*time.Second),
		parseDuration(s.WriteTimeout, 60*time.Second),
		parseDuration(s.IdleTimeout, 120*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

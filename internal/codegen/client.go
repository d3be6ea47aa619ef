// Package codegen provides clients for the external code-generation services
// the fallback healer delegates to.
package codegen

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client is the interface every generation provider implements.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options configures a provider client.
type Options struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

const (
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.1
	defaultMaxTokens   = 4096
)

func (o *Options) fillDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Temperature <= 0 {
		o.Temperature = defaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
}

// New selects a provider client by name.
func New(opts Options) (Client, error) {
	opts.fillDefaults()
	switch strings.ToLower(opts.Provider) {
	case "openai", "":
		return NewOpenAIClient(opts), nil
	case "anthropic":
		return NewAnthropicClient(opts), nil
	case "gemini", "genai":
		return NewGeminiClient(opts)
	default:
		return nil, fmt.Errorf("unknown code-generation provider %q", opts.Provider)
	}
}

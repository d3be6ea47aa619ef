// selfheal repairs failing API contract tests so their assertions match the
// tested service's observed behavior.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/codegen"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/config"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/fallback"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/healer"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/history"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/logging"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/notify"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/rules"
)

var (
	cfgPath string
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "selfheal",
	Short: "Self-healing repair for API contract tests",
	Long: `selfheal classifies a test failure, attempts deterministic rule-based
code transformation, falls back to an external code-generation service when
rules do not apply, validates the result, and records every attempt for
longitudinal pattern tracking.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		format := cfg.Logging.Format
		if verbose {
			level = "debug"
			format = "console"
		}
		logger, err = logging.Init(level, format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// app bundles the wired engine with everything that needs closing.
type app struct {
	engine  *healer.Engine
	history *history.History
	store   *history.Store
	webhook *notify.Webhook
}

// buildApp assembles the engine from the loaded configuration.
func buildApp() (*app, error) {
	a := &app{}

	if cfg.History.Enable {
		store, err := history.OpenStore(cfg.History.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		a.store = store
	}
	a.history = history.New(a.store, logging.New(logger, "history"))

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.WebhookURL != "" {
		a.webhook = notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.TimeoutDuration(), logging.New(logger, "notify"))
		notifier = a.webhook
	}

	var fb healer.FallbackHealer
	if !cfg.Healing.DisableFallback && cfg.Service.APIKey != "" {
		client, err := codegen.New(codegen.Options{
			Provider:    cfg.Service.Provider,
			APIKey:      cfg.Service.APIKey,
			BaseURL:     cfg.Service.BaseURL,
			Model:       cfg.Service.Model,
			Timeout:     cfg.Service.TimeoutDuration(),
			Temperature: cfg.Service.Temperature,
			MaxTokens:   cfg.Service.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		fb = fallback.New(client, cfg.Service.TimeoutDuration(), logging.New(logger, "fallback"))
	} else {
		logger.Debug("fallback healing disabled",
			zap.Bool("disabled_by_config", cfg.Healing.DisableFallback),
			zap.Bool("api_key_present", cfg.Service.APIKey != ""))
	}

	a.engine = healer.New(healer.Config{
		Rules:     rules.NewHealer(cfg.Healing.MinSimilarity),
		Fallback:  fb,
		History:   a.history,
		Notifier:  notifier,
		Threshold: cfg.Healing.ConfidenceThreshold,
		Logger:    logging.New(logger, "healer"),
	})
	return a, nil
}

// Close flushes the webhook queue and closes the store.
func (a *app) Close() {
	if a.webhook != nil {
		a.webhook.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "selfheal.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "console logging at debug level")

	rootCmd.AddCommand(healCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

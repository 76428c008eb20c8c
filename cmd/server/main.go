package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"stamind.app/journal-service/internal/config"
	"stamind.app/journal-service/internal/core"
	"stamind.app/journal-service/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "stamind",
	Short: "Journal analysis service",
	Long: `stamind analyzes journal entries with a generative model, stores them
per user and serves them over an authenticated HTTP API.
Run without a subcommand to start the server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadConfig()
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newModel builds the configured provider. The returned func releases it.
func newModel(ctx context.Context, cfg config.Config, logger *zap.Logger) (core.TextGenerator, func(), error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return core.NewOpenAIModel(cfg.OpenAIAPIKey), func() {}, nil
	default:
		m, err := core.NewGeminiModel(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	}
}

func analyzerConfig(cfg config.Config) core.AnalyzerConfig {
	return core.AnalyzerConfig{
		AnalysisModel: cfg.AnalysisModel,
		InsightModel:  cfg.InsightModel,
		MaxAttempts:   cfg.AnalysisMaxAttempts,
		RetryDelay:    cfg.AnalysisRetryDelay,
	}
}

func serviceConfig(cfg config.Config) core.ServiceConfig {
	return core.ServiceConfig{
		Analyzer:             analyzerConfig(cfg),
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitWindow:      cfg.RateLimitWindow,
		Quota: core.QuotaPolicy{
			FreeDaily:    cfg.FreeDailyQuota,
			PremiumDaily: cfg.PremiumDailyQuota,
		},
	}
}

func newLogger() (*zap.Logger, error) {
	logger, err := logging.New(config.AppConfig.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

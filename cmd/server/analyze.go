package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"stamind.app/journal-service/internal/config"
	"stamind.app/journal-service/internal/core"
	"stamind.app/journal-service/internal/store"
)

var (
	analyzeFile   string
	analyzeSchema bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one journal entry and print the result as JSON",
	Long: `Reads the entry from --file, or stdin when no file is given, and prints the
analysis record. Nothing is persisted.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "Read the entry from this file instead of stdin")
	analyzeCmd.Flags().BoolVar(&analyzeSchema, "schema", false, "Print the response JSON schema and exit")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if analyzeSchema {
		return writeIndented(out, core.AnalysisSchema)
	}

	text, err := readEntry(cmd.InOrStdin(), analyzeFile)
	if err != nil {
		return err
	}

	cfg := config.AppConfig
	if err := cfg.ValidateModel(); err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	model, closeModel, err := newModel(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize %s model: %w", cfg.LLMProvider, err)
	}
	defer closeModel()

	limiter := core.NewRateLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	client := core.NewAnalysisClient(model, limiter, analyzerConfig(cfg), logger)

	record, err := client.AnalyzeJournal(cmd.Context(), text)
	if err != nil {
		logger.Warn("analysis failed", zap.Stringer("kind", core.KindOf(err)), zap.Error(err))
		return errors.New(core.UserMessage(err))
	}
	return writeIndented(out, struct {
		store.AnalysisRecord
		QuantizedScore int `json:"quantizedScore"`
	}{record, core.QuantizeScore(record.RawScore)})
}

func readEntry(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read journal entry: %w", err)
	}
	return string(data), nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

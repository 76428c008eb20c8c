package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"stamind.app/journal-service/internal/logging"
	"stamind.app/journal-service/internal/store"
)

type AnalyzerConfig struct {
	AnalysisModel string
	InsightModel  string
	MaxAttempts   int
	RetryDelay    time.Duration
}

// AnalysisClient runs journal analyses and weekly insights against a
// TextGenerator, behind a RateLimiter.
type AnalysisClient struct {
	model   TextGenerator
	limiter *RateLimiter
	cfg     AnalyzerConfig
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewAnalysisClient(model TextGenerator, limiter *RateLimiter, cfg AnalyzerConfig, logger *zap.Logger) *AnalysisClient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InsightModel == "" {
		cfg.InsightModel = cfg.AnalysisModel
	}
	return &AnalysisClient{
		model:   model,
		limiter: limiter,
		cfg:     cfg,
		logger:  logging.OrNop(logger),
		sleep:   sleepContext,
	}
}

// AnalyzeJournal returns the parsed analysis of text. Failures are *Error
// values of kind Validation, RateLimit, Parse, Network or Service.
func (c *AnalysisClient) AnalyzeJournal(ctx context.Context, text string) (store.AnalysisRecord, error) {
	if strings.TrimSpace(text) == "" {
		return store.AnalysisRecord{}, newError(KindValidation, msgEmptyJournal, nil)
	}
	if err := c.limiter.CheckAndRecord(); err != nil {
		return store.AnalysisRecord{}, err
	}

	req := GenerateRequest{
		Model:             c.cfg.AnalysisModel,
		SystemInstruction: journalAnalysisSystemInstruction,
		Prompt:            journalPrompt(text),
		ResponseSchema:    AnalysisSchema,
		SchemaName:        "JournalAnalysis",
	}

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		raw, err := c.model.Generate(ctx, req)
		if err == nil {
			return ParseAnalysis(raw)
		}
		if errors.Is(err, errEmptyModelResponse) {
			return store.AnalysisRecord{}, newError(KindParse, msgParseFailed, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return store.AnalysisRecord{}, newError(KindService, msgCancelled, ctxErr)
		}

		c.logger.Warn("journal analysis attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		switch classifyModelError(err) {
		case failureTransient:
			if attempt < c.cfg.MaxAttempts {
				if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
					return store.AnalysisRecord{}, newError(KindService, msgCancelled, err)
				}
			}
		case failureNetwork:
			return store.AnalysisRecord{}, newError(KindNetwork, msgNoConnection, err)
		default:
			return store.AnalysisRecord{}, newError(KindService, fmt.Sprintf("Analysis failed: %v", err), err)
		}
	}

	return store.AnalysisRecord{}, newError(KindService, msgServerBusy, nil)
}

// GenerateWeeklyInsight asks for a short weekly review. There is no retry;
// failures are KindRateLimit, KindNetwork or KindInsight.
func (c *AnalysisClient) GenerateWeeklyInsight(ctx context.Context, count, avgScore int, trend, notes string) (string, error) {
	if err := c.limiter.CheckAndRecord(); err != nil {
		return "", err
	}

	raw, err := c.model.Generate(ctx, GenerateRequest{
		Model:             c.cfg.InsightModel,
		SystemInstruction: weeklyInsightSystemInstruction,
		Prompt:            weeklyInsightPrompt(count, avgScore, trend, notes),
	})
	if err != nil {
		c.logger.Warn("weekly insight request failed", zap.Error(err))
		if classifyModelError(err) == failureNetwork {
			return "", newError(KindNetwork, msgNoConnection, err)
		}
		return "", newError(KindInsight, msgInsightFailed, err)
	}

	insight := strings.TrimSpace(raw)
	if insight == "" {
		return "", newError(KindInsight, msgInsightFailed, errEmptyModelResponse)
	}
	return insight, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

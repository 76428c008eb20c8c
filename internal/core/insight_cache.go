package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"stamind.app/journal-service/internal/logging"
	"stamind.app/journal-service/internal/store"
	"stamind.app/journal-service/internal/utils"
)

const (
	TrendRising       = "rising"
	TrendFalling      = "falling"
	TrendStable       = "stable"
	TrendUndetermined = "undetermined"

	trendThreshold  = 10
	insightWindow   = 7 * 24 * time.Hour
	maxInsightNotes = 3
)

// InsightGenerator produces the natural-language weekly review.
type InsightGenerator interface {
	GenerateWeeklyInsight(ctx context.Context, count, avgScore int, trend, notes string) (string, error)
}

// WeeklyInsightCache memoizes the weekly insight by a fingerprint of the
// trailing 7-day entry set. The lock is held across a refresh, so at most one
// refresh runs per cache.
type WeeklyInsightCache struct {
	mu          sync.Mutex
	generator   InsightGenerator
	fingerprint string
	insight     *string
	now         func() time.Time
	logger      *zap.Logger
}

func NewWeeklyInsightCache(generator InsightGenerator, logger *zap.Logger) *WeeklyInsightCache {
	return &WeeklyInsightCache{
		generator: generator,
		now:       time.Now,
		logger:    logging.OrNop(logger),
	}
}

// GetOrRefresh returns the weekly insight for entries, recomputing it only
// when the trailing-week set changed. It never fails: generator errors
// degrade to a templated fallback. The bool is false when there is nothing
// to show (not premium, or no entries this week).
func (c *WeeklyInsightCache) GetOrRefresh(ctx context.Context, entries []store.JournalEntry, premium bool) (string, bool) {
	if !premium {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	weekly := trailingWeek(entries, c.now())
	fp := fingerprintEntries(weekly)

	if fp == c.fingerprint && c.insight != nil {
		return *c.insight, true
	}

	if len(weekly) == 0 {
		c.insight = nil
		c.fingerprint = fp
		return "", false
	}

	scores := make([]int, len(weekly))
	summaries := make([]string, 0, maxInsightNotes)
	for i, e := range weekly {
		scores[i] = e.Analysis.RawScore
		if i < maxInsightNotes {
			summaries = append(summaries, e.Analysis.Summary)
		}
	}
	trend := TrendUndetermined
	if len(scores) >= 2 {
		trend = scoreTrend(scores)
	}

	insight, err := c.generator.GenerateWeeklyInsight(ctx, len(weekly), meanScore(scores), trend, strings.Join(summaries, "; "))
	if err != nil {
		c.logger.Warn("weekly insight unavailable, using fallback", zap.Int("entries", len(weekly)), zap.Error(err))
		insight = fmt.Sprintf("You wrote %d journal entries this week. Keep going!", len(weekly))
	}
	c.insight = &insight
	c.fingerprint = fp
	return insight, true
}

// Refresh forces the next GetOrRefresh to recompute.
func (c *WeeklyInsightCache) Refresh() {
	c.mu.Lock()
	c.fingerprint = ""
	c.mu.Unlock()
}

// trailingWeek keeps entries whose day starts after now minus 7 days, in
// chronological order.
func trailingWeek(entries []store.JournalEntry, now time.Time) []store.JournalEntry {
	weekAgo := now.Add(-insightWindow)
	var out []store.JournalEntry
	for _, e := range entries {
		day, err := utils.ParseDate(e.Date)
		if err != nil {
			continue
		}
		if day.After(weekAgo) {
			out = append(out, e)
		}
	}
	sortChronological(out)
	return out
}

func fingerprintEntries(entries []store.JournalEntry) string {
	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%d-%s-%d\n", e.Timestamp, e.Date, e.Analysis.RawScore)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// scoreTrend compares the mean of the first half of scores with the mean of
// the second half (the odd element goes to the second half).
func scoreTrend(scores []int) string {
	half := len(scores) / 2
	first := meanFloat(scores[:half])
	second := meanFloat(scores[half:])
	switch {
	case second > first+trendThreshold:
		return TrendRising
	case second < first-trendThreshold:
		return TrendFalling
	default:
		return TrendStable
	}
}

func meanFloat(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// meanScore is the truncated integer mean.
func meanScore(scores []int) int {
	return int(meanFloat(scores))
}

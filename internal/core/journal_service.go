package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"stamind.app/journal-service/internal/logging"
	"stamind.app/journal-service/internal/store"
	"stamind.app/journal-service/internal/utils"
)

const (
	// submitTimeout bounds a submission once it has been detached from the
	// caller. It covers every analysis attempt plus the retry delays.
	submitTimeout = 2 * time.Minute

	sessionIdleTTL       = 24 * time.Hour
	sessionSweepInterval = 10 * time.Minute
)

type ServiceConfig struct {
	Analyzer             AnalyzerConfig
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	Quota                QuotaPolicy
}

type QuotaStatus struct {
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	UsedToday int  `json:"usedToday"`
	Premium   bool `json:"premium"`
}

// userSession holds a user's pipeline and insight cache. Both share one
// AnalysisClient with a per-user rate limiter; the model client is global.
type userSession struct {
	pipeline *JournalSubmissionPipeline
	insights *WeeklyInsightCache
	lastUsed time.Time
}

type JournalService struct {
	dbStore *store.Store
	model   TextGenerator
	cfg     ServiceConfig
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*userSession
	lastSweep time.Time
}

func NewJournalService(db *store.Store, model TextGenerator, cfg ServiceConfig, logger *zap.Logger) *JournalService {
	return &JournalService{
		dbStore:  db,
		model:    model,
		cfg:      cfg,
		logger:   logging.OrNop(logger),
		now:      time.Now,
		sessions: make(map[string]*userSession),
	}
}

// session returns the user's session, creating it on first use. Sessions idle
// for sessionIdleTTL are dropped along with their latest analysis and cached
// insight; the next call starts a fresh one.
func (s *JournalService) session(userID string) *userSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sessionSweepInterval {
		s.evictIdleLocked(now)
		s.lastSweep = now
	}

	if sess, ok := s.sessions[userID]; ok {
		sess.lastUsed = now
		return sess
	}
	logger := s.logger.With(zap.String("user_id", userID))
	limiter := NewRateLimiter(s.cfg.RateLimitMaxRequests, s.cfg.RateLimitWindow)
	analyzer := NewAnalysisClient(s.model, limiter, s.cfg.Analyzer, logger)
	sess := &userSession{
		pipeline: NewJournalSubmissionPipeline(userID, analyzer, s.dbStore, logger),
		insights: NewWeeklyInsightCache(analyzer, logger),
		lastUsed: now,
	}
	s.sessions[userID] = sess
	return sess
}

func (s *JournalService) evictIdleLocked(now time.Time) {
	for userID, sess := range s.sessions {
		if now.Sub(sess.lastUsed) < sessionIdleTTL || sess.pipeline.InFlight() {
			continue
		}
		delete(s.sessions, userID)
		s.logger.Debug("evicted idle session", zap.String("user_id", userID))
	}
}

// EnsureUser creates the user's row on first contact.
func (s *JournalService) EnsureUser(ctx context.Context, userID string) error {
	return s.dbStore.EnsureUser(ctx, userID)
}

func (s *JournalService) Quota(ctx context.Context, userID string) (QuotaStatus, error) {
	premium, err := s.dbStore.IsPremium(ctx, userID)
	if err != nil {
		return QuotaStatus{}, fmt.Errorf("failed to read entitlement: %w", err)
	}
	used, err := s.dbStore.CountJournalEntriesForDate(ctx, userID, utils.FormatDate(s.now()))
	if err != nil {
		return QuotaStatus{}, fmt.Errorf("failed to count today's entries: %w", err)
	}
	return QuotaStatus{
		Remaining: s.cfg.Quota.Remaining(premium, used),
		Limit:     s.cfg.Quota.Limit(premium),
		UsedToday: used,
		Premium:   premium,
	}, nil
}

// Submit runs the submission pipeline with the user's current quota. The
// submission is detached from ctx: a caller that goes away loses the result
// but the analysis still completes and is persisted. The error is only set
// when the quota could not be determined.
func (s *JournalService) Submit(ctx context.Context, userID, text string) (Outcome, error) {
	sess := s.session(userID)

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
	defer cancel()

	quotaRemaining := -1
	out, err := sess.pipeline.SubmitWithQuota(runCtx, text, func(ctx context.Context) (int, error) {
		quota, err := s.Quota(ctx, userID)
		quotaRemaining = quota.Remaining
		return quota.Remaining, err
	})
	if err != nil {
		return Outcome{}, err
	}
	s.logger.Info("journal submission",
		zap.String("user_id", userID),
		zap.Stringer("outcome", out.Kind),
		zap.Int("quota_remaining", quotaRemaining),
	)
	return out, nil
}

// LatestAnalysis is the last analysis produced in the user's session.
func (s *JournalService) LatestAnalysis(userID string) (*store.AnalysisRecord, *store.JournalEntry) {
	return s.session(userID).pipeline.Latest()
}

func (s *JournalService) ListJournals(ctx context.Context, userID string) ([]store.JournalEntry, error) {
	return s.dbStore.ListJournalEntries(ctx, userID)
}

func (s *JournalService) JournalByDate(ctx context.Context, userID, date string) (*store.JournalEntry, error) {
	if _, err := utils.ParseDate(date); err != nil {
		return nil, invalidDate(date)
	}
	return s.dbStore.GetLatestJournalByDate(ctx, userID, date)
}

func (s *JournalService) DeleteJournal(ctx context.Context, userID, date string, timestamp int64) error {
	return s.dbStore.DeleteJournalEntry(ctx, userID, date, timestamp)
}

func (s *JournalService) SetFavorite(ctx context.Context, userID, date string, timestamp int64, favorite bool) error {
	return s.dbStore.SetJournalFavorite(ctx, userID, date, timestamp, favorite)
}

// SubscribeJournals signals after every change to the user's journal
// collection until cancel is called.
func (s *JournalService) SubscribeJournals(userID string) (<-chan struct{}, func()) {
	return s.dbStore.Subscribe(userID)
}

// WeeklyInsight returns the cached or recomputed weekly insight. The bool is
// false when the feature is gated or the week is empty.
func (s *JournalService) WeeklyInsight(ctx context.Context, userID string) (string, bool, error) {
	entries, err := s.dbStore.ListJournalEntries(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("failed to list journal entries: %w", err)
	}
	return s.weeklyInsight(ctx, userID, entries)
}

func (s *JournalService) RefreshWeeklyInsight(ctx context.Context, userID string) (string, bool, error) {
	s.session(userID).insights.Refresh()
	return s.WeeklyInsight(ctx, userID)
}

func (s *JournalService) WeeklyReport(ctx context.Context, userID string) (WeeklyReport, error) {
	entries, err := s.dbStore.ListJournalEntries(ctx, userID)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("failed to list journal entries: %w", err)
	}
	insight, _, err := s.weeklyInsight(ctx, userID, entries)
	if err != nil {
		return WeeklyReport{}, err
	}
	return BuildWeeklyReport(entries, s.now(), insight), nil
}

func (s *JournalService) weeklyInsight(ctx context.Context, userID string, entries []store.JournalEntry) (string, bool, error) {
	premium, err := s.dbStore.IsPremium(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("failed to read entitlement: %w", err)
	}
	insight, ok := s.session(userID).insights.GetOrRefresh(ctx, entries, premium)
	return insight, ok, nil
}

func (s *JournalService) SaveMood(ctx context.Context, userID, date, emoji string, moodIndex int) (store.MoodEntry, error) {
	if _, err := utils.ParseDate(date); err != nil {
		return store.MoodEntry{}, invalidDate(date)
	}
	if moodIndex < 0 || moodIndex >= len(store.MoodLevels) {
		return store.MoodEntry{}, newError(KindValidation, fmt.Sprintf("Mood index must be between 0 and %d.", len(store.MoodLevels)-1), nil)
	}
	mood := store.MoodEntry{
		Date:      date,
		Emoji:     emoji,
		MoodIndex: moodIndex,
		Timestamp: s.now().UnixMilli(),
	}
	if err := s.dbStore.SaveMood(ctx, userID, mood); err != nil {
		return store.MoodEntry{}, err
	}
	return mood, nil
}

func (s *JournalService) MoodByDate(ctx context.Context, userID, date string) (*store.MoodEntry, error) {
	if _, err := utils.ParseDate(date); err != nil {
		return nil, invalidDate(date)
	}
	return s.dbStore.GetMoodByDate(ctx, userID, date)
}

// RecentMoods returns the last seven moods, oldest first.
func (s *JournalService) RecentMoods(ctx context.Context, userID string) ([]store.MoodEntry, error) {
	return s.dbStore.ListRecentMoods(ctx, userID, 7)
}

func (s *JournalService) DeleteMood(ctx context.Context, userID, date string) error {
	return s.dbStore.DeleteMood(ctx, userID, date)
}

func (s *JournalService) MoodStreak(ctx context.Context, userID string) (int, error) {
	dates, err := s.dbStore.ListMoodDates(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list mood dates: %w", err)
	}
	return ComputeStreak(dates, s.now()), nil
}

// UpgradeToPremium records the entitlement. Billing happens elsewhere.
func (s *JournalService) UpgradeToPremium(ctx context.Context, userID, planID string) error {
	if planID == "" {
		return newError(KindValidation, "planId is required.", nil)
	}
	if err := s.dbStore.UpgradeToPremium(ctx, userID, planID); err != nil {
		return err
	}
	s.logger.Info("user upgraded to premium", zap.String("user_id", userID), zap.String("plan_id", planID))
	return nil
}

func invalidDate(date string) error {
	return newError(KindValidation, fmt.Sprintf("Invalid date %q, expected yyyy-MM-dd.", date), nil)
}

package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stamind.app/journal-service/internal/store"
)

func newTestService(t *testing.T, model TextGenerator) (*JournalService, *store.Store) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := NewJournalService(db, model, ServiceConfig{
		Analyzer:             AnalyzerConfig{AnalysisModel: "test-model", MaxAttempts: 3},
		RateLimitMaxRequests: 10,
		RateLimitWindow:      time.Minute,
		Quota:                QuotaPolicy{FreeDaily: 1, PremiumDaily: 10},
	}, nil)
	return svc, db
}

func TestServiceSubmitConsumesQuota(t *testing.T) {
	model := &stubModel{script: []stubReply{{text: validAnalysisJSON}}}
	svc, _ := newTestService(t, model)
	ctx := context.Background()

	if err := svc.EnsureUser(ctx, "u1"); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}

	out, err := svc.Submit(ctx, "u1", "A long, honest entry about today.")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Kind != OutcomeAnalyzed {
		t.Fatalf("outcome = %+v", out)
	}

	q, err := svc.Quota(ctx, "u1")
	if err != nil {
		t.Fatalf("Quota: %v", err)
	}
	if q.UsedToday != 1 || q.Remaining != 0 || q.Limit != 1 || q.Premium {
		t.Fatalf("quota = %+v", q)
	}

	out, err = svc.Submit(ctx, "u1", "Another entry on the same day.")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Kind != OutcomeOfferRequired {
		t.Fatalf("second free submission = %v, want offer required", out.Kind)
	}
	if model.Calls() != 1 {
		t.Fatalf("model calls = %d", model.Calls())
	}

	if err := svc.UpgradeToPremium(ctx, "u1", "monthly"); err != nil {
		t.Fatalf("UpgradeToPremium: %v", err)
	}
	q, _ = svc.Quota(ctx, "u1")
	if q.Remaining != 9 || q.Limit != 10 || !q.Premium {
		t.Fatalf("premium quota = %+v", q)
	}

	latest, entry := svc.LatestAnalysis("u1")
	if latest == nil || entry == nil || latest.EmotionalState != "Calm" {
		t.Fatalf("latest = %+v %+v", latest, entry)
	}
	if other, _ := svc.LatestAnalysis("u2"); other != nil {
		t.Fatalf("latest analysis leaked across users")
	}
}

// cancelCallerModel cancels the submitting caller mid-analysis, then answers.
type cancelCallerModel struct {
	cancel context.CancelFunc
}

func (m *cancelCallerModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	m.cancel()
	return validAnalysisJSON, nil
}

func TestServiceSubmitOutlivesCaller(t *testing.T) {
	callerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, _ := newTestService(t, &cancelCallerModel{cancel: cancel})
	ctx := context.Background()

	if err := svc.EnsureUser(ctx, "u1"); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}

	out, err := svc.Submit(callerCtx, "u1", "Written just before the tab closed.")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Kind != OutcomeAnalyzed {
		t.Fatalf("outcome = %v (%v), want analyzed", out.Kind, out.Err)
	}
	if callerCtx.Err() == nil {
		t.Fatalf("caller context was not cancelled")
	}

	entries, err := svc.ListJournals(ctx, "u1")
	if err != nil {
		t.Fatalf("ListJournals: %v", err)
	}
	if len(entries) != 1 || entries[0].Analysis.EmotionalState != "Calm" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestServiceEvictsIdleSessions(t *testing.T) {
	svc, _ := newTestService(t, &stubModel{})
	clock := newFakeClock(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	svc.now = clock.Now

	idle := svc.session("idle")
	clock.Advance(sessionIdleTTL / 2)
	svc.session("active")

	clock.Advance(sessionIdleTTL/2 + time.Minute)
	active := svc.session("active")

	svc.mu.Lock()
	_, idleKept := svc.sessions["idle"]
	n := len(svc.sessions)
	svc.mu.Unlock()
	if idleKept || n != 1 {
		t.Fatalf("idle session kept = %v, sessions = %d", idleKept, n)
	}
	if svc.session("active") != active {
		t.Fatalf("active session was replaced")
	}
	if svc.session("idle") == idle {
		t.Fatalf("evicted session was reused")
	}
}

func TestServiceWeeklyInsightGatedAndCached(t *testing.T) {
	model := &stubModel{script: []stubReply{{text: validAnalysisJSON}}}
	svc, db := newTestService(t, model)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "u1", "Entry for the weekly insight."); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	insight, ok, err := svc.WeeklyInsight(ctx, "u1")
	if err != nil || ok || insight != "" {
		t.Fatalf("free user insight = %q, %v, %v", insight, ok, err)
	}
	if model.Calls() != 1 {
		t.Fatalf("free user reached the model")
	}

	if err := db.UpgradeToPremium(ctx, "u1", "yearly"); err != nil {
		t.Fatalf("UpgradeToPremium: %v", err)
	}
	model.mu.Lock()
	model.script = []stubReply{{text: "A reflective week."}}
	model.calls = 0
	model.mu.Unlock()

	for i := 0; i < 3; i++ {
		insight, ok, err = svc.WeeklyInsight(ctx, "u1")
		if err != nil || !ok || insight != "A reflective week." {
			t.Fatalf("insight = %q, %v, %v", insight, ok, err)
		}
	}
	if model.Calls() != 1 {
		t.Fatalf("model calls = %d, want 1", model.Calls())
	}

	if _, _, err := svc.RefreshWeeklyInsight(ctx, "u1"); err != nil {
		t.Fatalf("RefreshWeeklyInsight: %v", err)
	}
	if model.Calls() != 2 {
		t.Fatalf("refresh did not recompute")
	}

	report, err := svc.WeeklyReport(ctx, "u1")
	if err != nil {
		t.Fatalf("WeeklyReport: %v", err)
	}
	if report.Interpretation != "A reflective week." || report.EntryCount != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestServiceMoods(t *testing.T) {
	svc, _ := newTestService(t, &stubModel{})
	ctx := context.Background()
	svc.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local) }

	if _, err := svc.SaveMood(ctx, "u1", "2026-10-15", "😀", 5); KindOf(err) != KindValidation {
		t.Fatalf("out of range mood err = %v", err)
	}
	if _, err := svc.SaveMood(ctx, "u1", "15/10/2026", "😀", 0); KindOf(err) != KindValidation {
		t.Fatalf("bad date err = %v", err)
	}

	for _, d := range []string{"2026-10-13", "2026-10-14", "2026-10-15"} {
		if _, err := svc.SaveMood(ctx, "u1", d, "🙂", 1); err != nil {
			t.Fatalf("SaveMood(%s): %v", d, err)
		}
	}
	streak, err := svc.MoodStreak(ctx, "u1")
	if err != nil || streak != 3 {
		t.Fatalf("streak = %d, %v", streak, err)
	}

	if err := svc.DeleteMood(ctx, "u1", "2026-10-14"); err != nil {
		t.Fatalf("DeleteMood: %v", err)
	}
	streak, _ = svc.MoodStreak(ctx, "u1")
	if streak != 1 {
		t.Fatalf("streak after gap = %d", streak)
	}

	m, err := svc.MoodByDate(ctx, "u1", "2026-10-15")
	if err != nil || m == nil || m.Label() != "Good" {
		t.Fatalf("mood = %+v, %v", m, err)
	}
	if err := svc.DeleteMood(ctx, "u1", "2026-10-14"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

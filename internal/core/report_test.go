package core

import (
	"testing"
	"time"

	"stamind.app/journal-service/internal/store"
)

func journalOn(date string, ts int64, score int) store.JournalEntry {
	return store.JournalEntry{Date: date, Timestamp: ts, Analysis: store.AnalysisRecord{RawScore: score}}
}

func TestBuildWeeklyReport(t *testing.T) {
	// Thursday; the week is 2026-10-12 .. 2026-10-18
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.Local)
	entries := []store.JournalEntry{
		journalOn("2026-10-15", 400, 90),
		journalOn("2026-10-13", 300, 70),
		journalOn("2026-10-12", 200, 30),
		journalOn("2026-10-12", 100, 50),
		journalOn("2026-10-07", 50, 40), // previous week
		journalOn("2026-10-05", 40, 60), // previous week
		journalOn("2026-09-01", 1, 100),
	}

	r := BuildWeeklyReport(entries, now, "")

	if len(r.Days) != 7 || r.Days[0].Date != "2026-10-12" || r.Days[6].Date != "2026-10-18" {
		t.Fatalf("days = %+v", r.Days)
	}
	// latest entry of the day wins
	if r.Days[0].Score == nil || *r.Days[0].Score != 30 || r.Days[0].Band != "low" {
		t.Errorf("monday = %+v", r.Days[0])
	}
	if r.Days[3].Score == nil || *r.Days[3].Score != 90 || r.Days[3].BarHeight != 0.9 || r.Days[3].Band != "high" {
		t.Errorf("thursday = %+v", r.Days[3])
	}
	if r.Days[2].Score != nil || r.Days[2].BarHeight != 0 {
		t.Errorf("wednesday should be empty: %+v", r.Days[2])
	}

	if r.EntryCount != 4 {
		t.Errorf("entry count = %d", r.EntryCount)
	}
	// (50+30+70+90)/4 = 60
	if r.AverageScore != 60 || r.AverageDecimal != 6.0 || r.Band != "medium" {
		t.Errorf("average = %d / %v / %s", r.AverageScore, r.AverageDecimal, r.Band)
	}
	// previous week average 50, so +20%
	if r.ChangePercent == nil || *r.ChangePercent != 20 {
		t.Errorf("change = %v", r.ChangePercent)
	}
	// chronological halves: (50,30) vs (70,90)
	if r.Trend != TrendRising {
		t.Errorf("trend = %q", r.Trend)
	}
	if r.Interpretation != "Overall you had a balanced week." {
		t.Errorf("interpretation = %q", r.Interpretation)
	}
}

func TestBuildWeeklyReportWithInsightAndNoPreviousWeek(t *testing.T) {
	now := time.Date(2026, 10, 18, 22, 0, 0, 0, time.Local) // Sunday
	entries := []store.JournalEntry{journalOn("2026-10-18", 1, 73)}

	r := BuildWeeklyReport(entries, now, "Nice week.")
	if r.Interpretation != "Nice week." {
		t.Errorf("interpretation = %q", r.Interpretation)
	}
	if r.ChangePercent != nil {
		t.Errorf("change without previous week = %d", *r.ChangePercent)
	}
	if r.Trend != TrendStable {
		t.Errorf("single entry trend = %q", r.Trend)
	}
	if r.AverageDecimal != 7.3 {
		t.Errorf("average decimal = %v", r.AverageDecimal)
	}
}

func TestBuildWeeklyReportEmptyWeek(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.Local)
	r := BuildWeeklyReport(nil, now, "")
	if r.EntryCount != 0 || r.Interpretation != "" || r.ChangePercent != nil {
		t.Errorf("report = %+v", r)
	}
}

func TestInterpretAverage(t *testing.T) {
	tests := map[int]string{
		95: "What a great week! Your energy and motivation are high.",
		80: "What a great week! Your energy and motivation are high.",
		60: "Overall you had a balanced week.",
		40: "This week had its ups and downs. Make some time for yourself.",
		39: "You had a tough week. Take a step back and rest.",
	}
	for avg, want := range tests {
		if got := interpretAverage(avg); got != want {
			t.Errorf("interpretAverage(%d) = %q", avg, got)
		}
	}
}

func TestComputeStreak(t *testing.T) {
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.Local)
	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{name: "none", dates: nil, want: 0},
		{name: "today only", dates: []string{"2026-10-15"}, want: 1},
		{name: "through today", dates: []string{"2026-10-15", "2026-10-14", "2026-10-13", "2026-10-11"}, want: 3},
		{name: "anchored yesterday", dates: []string{"2026-10-14", "2026-10-13"}, want: 2},
		{name: "broken", dates: []string{"2026-10-13", "2026-10-12"}, want: 0},
		{name: "month boundary", dates: []string{"2026-10-02", "2026-10-01", "2026-09-30"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeStreak(tt.dates, now); got != tt.want {
				t.Fatalf("ComputeStreak = %d, want %d", got, tt.want)
			}
		})
	}

	first := time.Date(2026, 10, 1, 9, 0, 0, 0, time.Local)
	if got := ComputeStreak([]string{"2026-10-01", "2026-09-30", "2026-09-29"}, first); got != 3 {
		t.Fatalf("streak across months = %d", got)
	}
}

func TestRemainingQuota(t *testing.T) {
	policy := QuotaPolicy{FreeDaily: 1, PremiumDaily: 10}
	tests := []struct {
		premium bool
		used    int
		want    int
	}{
		{premium: false, used: 0, want: 1},
		{premium: false, used: 1, want: 0},
		{premium: false, used: 3, want: 0},
		{premium: true, used: 4, want: 6},
		{premium: true, used: 12, want: 0},
	}
	for _, tt := range tests {
		if got := policy.Remaining(tt.premium, tt.used); got != tt.want {
			t.Errorf("Remaining(%v, %d) = %d, want %d", tt.premium, tt.used, got, tt.want)
		}
	}
}

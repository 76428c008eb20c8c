package core

import (
	"math"
	"sort"
	"time"

	"stamind.app/journal-service/internal/store"
	"stamind.app/journal-service/internal/utils"
)

// DayScore is one bar of the weekly chart. Score is nil on days without an
// entry.
type DayScore struct {
	Date      string  `json:"date"`
	Score     *int    `json:"score"`
	BarHeight float64 `json:"barHeight"`
	Band      string  `json:"band,omitempty"`
}

type WeeklyReport struct {
	Days           []DayScore `json:"days"`
	EntryCount     int        `json:"entryCount"`
	AverageScore   int        `json:"averageScore"`
	AverageDecimal float64    `json:"averageDecimal"`
	Band           string     `json:"band"`
	ChangePercent  *int       `json:"changePercent"`
	Trend          string     `json:"trend"`
	Interpretation string     `json:"interpretation"`
}

// BuildWeeklyReport summarizes the Monday..Sunday week containing now.
// insight, when non-empty, replaces the score-based interpretation. Weeks
// without entries get no interpretation.
func BuildWeeklyReport(entries []store.JournalEntry, now time.Time, insight string) WeeklyReport {
	week := utils.WeekDates(now)
	prevWeek := utils.WeekDates(now.AddDate(0, 0, -7))

	thisWeek := entriesOn(entries, week)
	report := WeeklyReport{
		Days:       make([]DayScore, 0, len(week)),
		EntryCount: len(thisWeek),
		Trend:      TrendStable,
	}

	latest := latestPerDay(thisWeek)
	for _, d := range week {
		day := DayScore{Date: d}
		if e, ok := latest[d]; ok {
			score := clampScore(e.Analysis.RawScore)
			day.Score = &score
			day.BarHeight = BarHeight(score)
			day.Band = DayBand(score)
		}
		report.Days = append(report.Days, day)
	}

	scores := rawScores(thisWeek)
	if len(scores) > 0 {
		avg := meanFloat(scores)
		report.AverageScore = meanScore(scores)
		report.AverageDecimal = math.Round(avg) / 10

		if prev := rawScores(entriesOn(entries, prevWeek)); len(prev) > 0 {
			if prevAvg := meanFloat(prev); prevAvg > 0 {
				change := int((avg - prevAvg) / prevAvg * 100)
				report.ChangePercent = &change
			}
		}
		if len(scores) >= 2 {
			report.Trend = scoreTrend(scores)
		}

		report.Interpretation = insight
		if report.Interpretation == "" {
			report.Interpretation = interpretAverage(report.AverageScore)
		}
	}
	report.Band = WeekBand(report.AverageScore)
	return report
}

func interpretAverage(avg int) string {
	switch {
	case avg >= 80:
		return "What a great week! Your energy and motivation are high."
	case avg >= 60:
		return "Overall you had a balanced week."
	case avg >= 40:
		return "This week had its ups and downs. Make some time for yourself."
	default:
		return "You had a tough week. Take a step back and rest."
	}
}

// ComputeStreak counts consecutive days with a mood entry, starting today,
// or yesterday when today has none yet.
func ComputeStreak(dates []string, now time.Time) int {
	have := make(map[string]bool, len(dates))
	for _, d := range dates {
		have[d] = true
	}

	day := now
	if !have[utils.FormatDate(day)] {
		day = day.AddDate(0, 0, -1)
		if !have[utils.FormatDate(day)] {
			return 0
		}
	}

	streak := 0
	for have[utils.FormatDate(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// entriesOn returns the entries falling on the given days, chronologically.
func entriesOn(entries []store.JournalEntry, days []string) []store.JournalEntry {
	in := make(map[string]bool, len(days))
	for _, d := range days {
		in[d] = true
	}
	var out []store.JournalEntry
	for _, e := range entries {
		if in[e.Date] {
			out = append(out, e)
		}
	}
	sortChronological(out)
	return out
}

func sortChronological(entries []store.JournalEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].Timestamp < entries[j].Timestamp
	})
}

func latestPerDay(entries []store.JournalEntry) map[string]store.JournalEntry {
	out := make(map[string]store.JournalEntry)
	for _, e := range entries {
		if cur, ok := out[e.Date]; !ok || e.Timestamp > cur.Timestamp {
			out[e.Date] = e
		}
	}
	return out
}

func rawScores(entries []store.JournalEntry) []int {
	scores := make([]int, len(entries))
	for i, e := range entries {
		scores[i] = e.Analysis.RawScore
	}
	return scores
}

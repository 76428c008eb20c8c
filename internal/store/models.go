package store

import "fmt"

type Suggestion struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// AnalysisRecord is the AI-derived part of a journal entry. All fields are
// produced together by one analysis call.
type AnalysisRecord struct {
	EmotionalState   string       `json:"emotionalState"`
	Summary          string       `json:"summary"`
	RawScore         int          `json:"rawScore"`
	ScoreExplanation string       `json:"scoreExplanation"`
	SupportMessage   string       `json:"supportMessage"`
	Themes           []string     `json:"themes"`
	Suggestions      []Suggestion `json:"suggestions"`
}

type JournalEntry struct {
	Date        string         `json:"date"` // yyyy-MM-dd local day bucket
	JournalText string         `json:"journalText"`
	Analysis    AnalysisRecord `json:"analysis"`
	Timestamp   int64          `json:"timestamp"` // unix millis
	IsFavorite  bool           `json:"isFavorite"`
}

// ID is the document identity. Date and Timestamp must never change after creation.
func (e JournalEntry) ID() string {
	return JournalDocumentID(e.Date, e.Timestamp)
}

func JournalDocumentID(date string, timestamp int64) string {
	return fmt.Sprintf("%s_%d", date, timestamp)
}

// Mood scale, ordinal positions 0..4.
var MoodLevels = []string{"Great", "Good", "Average", "Bad", "Awful"}

type MoodEntry struct {
	Date      string `json:"date"`
	Emoji     string `json:"emoji"`
	MoodIndex int    `json:"moodIndex"`
	Timestamp int64  `json:"timestamp"`
}

func (m MoodEntry) Label() string {
	if m.MoodIndex < 0 || m.MoodIndex >= len(MoodLevels) {
		return ""
	}
	return MoodLevels[m.MoodIndex]
}

type User struct {
	ID           string  `db:"id" json:"id"`
	Premium      bool    `db:"premium" json:"premium"`
	PremiumPlan  *string `db:"premium_plan" json:"premiumPlan,omitempty"`
	PremiumSince *int64  `db:"premium_since" json:"premiumSince,omitempty"`
	CreatedAt    int64   `db:"created_at" json:"createdAt"`
}

// journalRow is the persisted layout of a JournalEntry; the analysis is
// kept as a JSON document.
type journalRow struct {
	DocID       string `db:"doc_id"`
	UserID      string `db:"user_id"`
	Date        string `db:"date"`
	JournalText string `db:"journal_text"`
	Analysis    string `db:"analysis"`
	RawScore    int    `db:"raw_score"`
	Timestamp   int64  `db:"timestamp"`
	IsFavorite  bool   `db:"is_favorite"`
}

type moodRow struct {
	UserID    string `db:"user_id"`
	Date      string `db:"date"`
	Emoji     string `db:"emoji"`
	MoodIndex int    `db:"mood_index"`
	Timestamp int64  `db:"timestamp"`
}

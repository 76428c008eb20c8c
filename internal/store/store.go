package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var ErrNotFound = errors.New("document not found")

// Store is the owner-scoped document store. Every operation takes the owner
// id; no query ever crosses users.
type Store struct {
	db     *sqlx.DB
	notify *notifier
}

// Open connects to DATABASE_URL. postgres:// and postgresql:// URLs use pgx,
// anything else is treated as a SQLite file path.
func Open(databaseURL string) (*Store, error) {
	driver := driverFor(databaseURL)
	db, err := sqlx.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(2 * time.Hour)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, notify: newNotifier()}
	if err = s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func driverFor(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return "pgx"
	}
	return "sqlite3"
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            premium BOOLEAN NOT NULL DEFAULT FALSE,
            premium_plan TEXT,
            premium_since BIGINT,
            created_at BIGINT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS journals (
            doc_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            date TEXT NOT NULL,
            journal_text TEXT NOT NULL,
            analysis TEXT NOT NULL, -- AnalysisRecord as JSON
            raw_score INTEGER NOT NULL,
            timestamp BIGINT NOT NULL,
            is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
            PRIMARY KEY (user_id, doc_id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_journals_user_date ON journals (user_id, date)`,
		`CREATE TABLE IF NOT EXISTS moods (
            user_id TEXT NOT NULL,
            date TEXT NOT NULL,
            emoji TEXT NOT NULL,
            mood_index INTEGER NOT NULL,
            timestamp BIGINT NOT NULL,
            PRIMARY KEY (user_id, date)
        )`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// User methods

func (s *Store) EnsureUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO users (id, premium, created_at) VALUES (?, FALSE, ?) ON CONFLICT (id) DO NOTHING`),
		userID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(
		`SELECT id, premium, premium_plan, premium_since, created_at FROM users WHERE id = ?`), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *Store) IsPremium(ctx context.Context, userID string) (bool, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return u != nil && u.Premium, nil
}

func (s *Store) UpgradeToPremium(ctx context.Context, userID, planID string) error {
	if err := s.EnsureUser(ctx, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE users SET premium = TRUE, premium_plan = ?, premium_since = ? WHERE id = ?`),
		planID, time.Now().UnixMilli(), userID)
	if err != nil {
		return fmt.Errorf("failed to upgrade user: %w", err)
	}
	return nil
}

// Journal methods

// InsertJournalEntry sets the document addressed by (date, timestamp) and
// returns its id.
func (s *Store) InsertJournalEntry(ctx context.Context, userID string, entry JournalEntry) (string, error) {
	analysisJSON, err := json.Marshal(entry.Analysis)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}
	row := journalRow{
		DocID:       entry.ID(),
		UserID:      userID,
		Date:        entry.Date,
		JournalText: entry.JournalText,
		Analysis:    string(analysisJSON),
		RawScore:    entry.Analysis.RawScore,
		Timestamp:   entry.Timestamp,
		IsFavorite:  entry.IsFavorite,
	}

	_, err = s.db.NamedExecContext(ctx, `
        INSERT INTO journals (doc_id, user_id, date, journal_text, analysis, raw_score, timestamp, is_favorite)
        VALUES (:doc_id, :user_id, :date, :journal_text, :analysis, :raw_score, :timestamp, :is_favorite)
        ON CONFLICT (user_id, doc_id) DO UPDATE SET
            journal_text = excluded.journal_text,
            analysis = excluded.analysis,
            raw_score = excluded.raw_score,
            is_favorite = excluded.is_favorite`, row)
	if err != nil {
		return "", fmt.Errorf("failed to insert journal entry: %w", err)
	}

	s.notify.publish(userID)
	return row.DocID, nil
}

// ListJournalEntries returns every entry of the user, newest first.
func (s *Store) ListJournalEntries(ctx context.Context, userID string) ([]JournalEntry, error) {
	var rows []journalRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
        SELECT doc_id, user_id, date, journal_text, analysis, raw_score, timestamp, is_favorite
        FROM journals WHERE user_id = ? ORDER BY date DESC, timestamp DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	return decodeJournalRows(rows)
}

// GetLatestJournalByDate returns the newest entry of the given day, or nil.
func (s *Store) GetLatestJournalByDate(ctx context.Context, userID, date string) (*JournalEntry, error) {
	var rows []journalRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
        SELECT doc_id, user_id, date, journal_text, analysis, raw_score, timestamp, is_favorite
        FROM journals WHERE user_id = ? AND date = ? ORDER BY timestamp DESC LIMIT 1`), userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal by date: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	entries, err := decodeJournalRows(rows)
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

func (s *Store) CountJournalEntriesForDate(ctx context.Context, userID, date string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(
		`SELECT COUNT(*) FROM journals WHERE user_id = ? AND date = ?`), userID, date)
	if err != nil {
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteJournalEntry(ctx context.Context, userID, date string, timestamp int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM journals WHERE user_id = ? AND doc_id = ?`), userID, JournalDocumentID(date, timestamp))
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	s.notify.publish(userID)
	return nil
}

func (s *Store) SetJournalFavorite(ctx context.Context, userID, date string, timestamp int64, favorite bool) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE journals SET is_favorite = ? WHERE user_id = ? AND doc_id = ?`),
		favorite, userID, JournalDocumentID(date, timestamp))
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	s.notify.publish(userID)
	return nil
}

// Subscribe returns a channel signalled after every change to the user's
// journal collection. Call cancel to stop; it closes the channel.
func (s *Store) Subscribe(userID string) (<-chan struct{}, func()) {
	return s.notify.subscribe(userID)
}

func decodeJournalRows(rows []journalRow) ([]JournalEntry, error) {
	entries := make([]JournalEntry, 0, len(rows))
	for _, r := range rows {
		var analysis AnalysisRecord
		if err := json.Unmarshal([]byte(r.Analysis), &analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis of %s: %w", r.DocID, err)
		}
		analysis.RawScore = r.RawScore
		entries = append(entries, JournalEntry{
			Date:        r.Date,
			JournalText: r.JournalText,
			Analysis:    analysis,
			Timestamp:   r.Timestamp,
			IsFavorite:  r.IsFavorite,
		})
	}
	return entries, nil
}

// Mood methods

// SaveMood upserts the mood of a day; one mood per date per user.
func (s *Store) SaveMood(ctx context.Context, userID string, mood MoodEntry) error {
	row := moodRow{
		UserID:    userID,
		Date:      mood.Date,
		Emoji:     mood.Emoji,
		MoodIndex: mood.MoodIndex,
		Timestamp: mood.Timestamp,
	}
	_, err := s.db.NamedExecContext(ctx, `
        INSERT INTO moods (user_id, date, emoji, mood_index, timestamp)
        VALUES (:user_id, :date, :emoji, :mood_index, :timestamp)
        ON CONFLICT (user_id, date) DO UPDATE SET
            emoji = excluded.emoji,
            mood_index = excluded.mood_index,
            timestamp = excluded.timestamp`, row)
	if err != nil {
		return fmt.Errorf("failed to save mood: %w", err)
	}
	return nil
}

func (s *Store) GetMoodByDate(ctx context.Context, userID, date string) (*MoodEntry, error) {
	var r moodRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(
		`SELECT user_id, date, emoji, mood_index, timestamp FROM moods WHERE user_id = ? AND date = ?`), userID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query mood: %w", err)
	}
	m := r.toEntry()
	return &m, nil
}

// ListRecentMoods returns the newest limit moods by date, in ascending date order.
func (s *Store) ListRecentMoods(ctx context.Context, userID string, limit int) ([]MoodEntry, error) {
	var rows []moodRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
        SELECT user_id, date, emoji, mood_index, timestamp FROM moods
        WHERE user_id = ? ORDER BY date DESC LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query moods: %w", err)
	}
	out := make([]MoodEntry, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r.toEntry()
	}
	return out, nil
}

func (s *Store) ListMoodDates(ctx context.Context, userID string) ([]string, error) {
	var dates []string
	err := s.db.SelectContext(ctx, &dates, s.db.Rebind(
		`SELECT date FROM moods WHERE user_id = ? ORDER BY date DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood dates: %w", err)
	}
	return dates, nil
}

func (s *Store) DeleteMood(ctx context.Context, userID, date string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM moods WHERE user_id = ? AND date = ?`), userID, date)
	if err != nil {
		return fmt.Errorf("failed to delete mood: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r moodRow) toEntry() MoodEntry {
	return MoodEntry{Date: r.Date, Emoji: r.Emoji, MoodIndex: r.MoodIndex, Timestamp: r.Timestamp}
}

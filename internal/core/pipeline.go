package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"stamind.app/journal-service/internal/logging"
	"stamind.app/journal-service/internal/store"
	"stamind.app/journal-service/internal/utils"
)

const (
	MinJournalLength = 5
	MaxJournalLength = 4000

	degradedEmotionalState = "Analysis Error"
	degradedSummary        = "Something went wrong while processing the AI response."
)

type OutcomeKind int

const (
	OutcomeAnalyzed OutcomeKind = iota
	OutcomeDegraded
	OutcomeValidationWarning
	OutcomeOfferRequired
	OutcomeIgnored
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAnalyzed:
		return "analyzed"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeValidationWarning:
		return "validation_warning"
	case OutcomeOfferRequired:
		return "offer_required"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Submit call.
type Outcome struct {
	Kind OutcomeKind
	// Set for OutcomeAnalyzed.
	EntryID string
	Entry   *store.JournalEntry
	// Set for OutcomeAnalyzed and OutcomeDegraded.
	Analysis       store.AnalysisRecord
	QuantizedScore int
	// Warning is the soft message for OutcomeValidationWarning.
	Warning string
	// Err is the underlying failure for OutcomeDegraded.
	Err error
}

// Analyzer is the subset of AnalysisClient the pipeline depends on.
type Analyzer interface {
	AnalyzeJournal(ctx context.Context, text string) (store.AnalysisRecord, error)
}

// JournalWriter persists analyzed entries.
type JournalWriter interface {
	InsertJournalEntry(ctx context.Context, userID string, entry store.JournalEntry) (string, error)
}

// JournalSubmissionPipeline validates, gates and analyzes a user's journal
// submissions. At most one submission runs at a time per pipeline.
type JournalSubmissionPipeline struct {
	userID   string
	analyzer Analyzer
	journals JournalWriter
	now      func() time.Time
	logger   *zap.Logger

	inFlight atomic.Bool

	mu          sync.Mutex
	latest      *store.AnalysisRecord
	latestEntry *store.JournalEntry
}

func NewJournalSubmissionPipeline(userID string, analyzer Analyzer, journals JournalWriter, logger *zap.Logger) *JournalSubmissionPipeline {
	return &JournalSubmissionPipeline{
		userID:   userID,
		analyzer: analyzer,
		journals: journals,
		now:      time.Now,
		logger:   logging.OrNop(logger).With(zap.String("user_id", userID)),
	}
}

// QuotaFunc reports how many analyses the user may still run today.
type QuotaFunc func(ctx context.Context) (int, error)

// Submit runs one submission against a fixed remaining quota. Once
// validation and quota pass it always yields a displayable analysis;
// failures become a degraded placeholder.
func (p *JournalSubmissionPipeline) Submit(ctx context.Context, text string, quotaRemaining int) Outcome {
	out, _ := p.SubmitWithQuota(ctx, text, func(context.Context) (int, error) {
		return quotaRemaining, nil
	})
	return out
}

// SubmitWithQuota is Submit with the quota read while the in-flight guard is
// held, so back-to-back submissions cannot both spend the last slot. The
// error is only set when quota fails.
func (p *JournalSubmissionPipeline) SubmitWithQuota(ctx context.Context, text string, quota QuotaFunc) (Outcome, error) {
	if p.inFlight.Load() {
		return Outcome{Kind: OutcomeIgnored}, nil
	}

	switch n := utf8.RuneCountInString(text); {
	case n < MinJournalLength:
		return p.warn("Could you write in a little more detail? At least 5 characters are needed."), nil
	case n > MaxJournalLength:
		return p.warn("Journal entries are limited to 4000 characters."), nil
	}

	if !p.inFlight.CompareAndSwap(false, true) {
		return Outcome{Kind: OutcomeIgnored}, nil
	}
	defer p.inFlight.Store(false)

	remaining, err := quota(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if remaining <= 0 {
		return Outcome{Kind: OutcomeOfferRequired}, nil
	}

	analysis, err := p.analyzer.AnalyzeJournal(ctx, text)
	if err != nil {
		p.logger.Warn("journal analysis failed", zap.Stringer("kind", KindOf(err)), zap.Error(err))
		return p.degrade(err), nil
	}

	now := p.now()
	entry := store.JournalEntry{
		Date:        utils.FormatDate(now),
		JournalText: text,
		Analysis:    analysis,
		Timestamp:   now.UnixMilli(),
	}
	id, err := p.journals.InsertJournalEntry(ctx, p.userID, entry)
	if err != nil {
		p.logger.Error("failed to persist journal entry", zap.Error(err))
		return p.degrade(err), nil
	}

	p.mu.Lock()
	p.latest = &analysis
	p.latestEntry = &entry
	p.mu.Unlock()

	return Outcome{
		Kind:           OutcomeAnalyzed,
		EntryID:        id,
		Entry:          &entry,
		Analysis:       analysis,
		QuantizedScore: QuantizeScore(analysis.RawScore),
	}, nil
}

// InFlight reports whether a submission is currently running.
func (p *JournalSubmissionPipeline) InFlight() bool {
	return p.inFlight.Load()
}

// Latest returns the last analysis shown to the user and, when it was
// persisted, its journal entry.
func (p *JournalSubmissionPipeline) Latest() (*store.AnalysisRecord, *store.JournalEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.latestEntry
}

func (p *JournalSubmissionPipeline) warn(msg string) Outcome {
	return Outcome{Kind: OutcomeValidationWarning, Warning: msg}
}

func (p *JournalSubmissionPipeline) degrade(err error) Outcome {
	placeholder := store.AnalysisRecord{
		EmotionalState: degradedEmotionalState,
		Summary:        degradedSummary,
		RawScore:       0,
		SupportMessage: UserMessage(err),
		Themes:         []string{},
		Suggestions:    []store.Suggestion{},
	}

	p.mu.Lock()
	p.latest = &placeholder
	p.latestEntry = nil
	p.mu.Unlock()

	return Outcome{Kind: OutcomeDegraded, Analysis: placeholder, Err: err}
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"stamind.app/journal-service/internal/core"
	"stamind.app/journal-service/internal/logging"
	"stamind.app/journal-service/internal/store"
)

const streamKeepAlive = 30 * time.Second

type APIHandler struct {
	service   *core.JournalService
	jwtSecret string
	logger    *zap.Logger
}

func NewAPIHandler(service *core.JournalService, jwtSecret string, logger *zap.Logger) *APIHandler {
	return &APIHandler{service: service, jwtSecret: jwtSecret, logger: logging.OrNop(logger)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError maps service errors to status codes. Unclassified errors are
// logged and reported as msg.
func (h *APIHandler) respondError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case core.KindOf(err) == core.KindValidation:
		http.Error(w, core.UserMessage(err), http.StatusBadRequest)
	case core.KindOf(err) == core.KindRateLimit:
		var e *core.Error
		if errors.As(err, &e) {
			w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfterSeconds))
		}
		http.Error(w, core.UserMessage(err), http.StatusTooManyRequests)
	default:
		h.logger.Error(msg, zap.String("user_id", userIDFrom(r.Context())), zap.Error(err))
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

// Journals

type SubmitJournalRequest struct {
	Text string `json:"text"`
}

type SubmitJournalResponse struct {
	EntryID        string               `json:"entryId"`
	Entry          *store.JournalEntry  `json:"entry"`
	Analysis       store.AnalysisRecord `json:"analysis"`
	QuantizedScore int                  `json:"quantizedScore"`
}

type DegradedResponse struct {
	Degraded bool                 `json:"degraded"`
	Analysis store.AnalysisRecord `json:"analysis"`
	Error    string               `json:"error"`
}

func (h *APIHandler) SubmitJournalHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req SubmitJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	out, err := h.service.Submit(r.Context(), userID, req.Text)
	if err != nil {
		h.respondError(w, r, err, "Failed to submit journal entry")
		return
	}

	switch out.Kind {
	case core.OutcomeAnalyzed:
		writeJSON(w, http.StatusCreated, SubmitJournalResponse{
			EntryID:        out.EntryID,
			Entry:          out.Entry,
			Analysis:       out.Analysis,
			QuantizedScore: out.QuantizedScore,
		})
	case core.OutcomeValidationWarning:
		writeJSON(w, http.StatusOK, map[string]string{"warning": out.Warning})
	case core.OutcomeOfferRequired:
		writeJSON(w, http.StatusPaymentRequired, map[string]bool{"offerRequired": true})
	case core.OutcomeIgnored:
		http.Error(w, "A submission is already in progress", http.StatusConflict)
	case core.OutcomeDegraded:
		writeJSON(w, http.StatusOK, DegradedResponse{
			Degraded: true,
			Analysis: out.Analysis,
			Error:    core.UserMessage(out.Err),
		})
	default:
		http.Error(w, "Failed to submit journal entry", http.StatusInternalServerError)
	}
}

func (h *APIHandler) ListJournalsHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListJournals(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err, "Failed to list journal entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *APIHandler) GetJournalByDateHandler(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.JournalByDate(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "date"))
	if err != nil {
		h.respondError(w, r, err, "Failed to get journal entry")
		return
	}
	if entry == nil {
		http.Error(w, "Journal entry not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func journalKey(r *http.Request) (string, int64, error) {
	ts, err := strconv.ParseInt(chi.URLParam(r, "timestamp"), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid timestamp: %w", err)
	}
	return chi.URLParam(r, "date"), ts, nil
}

func (h *APIHandler) DeleteJournalHandler(w http.ResponseWriter, r *http.Request) {
	date, ts, err := journalKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteJournal(r.Context(), userIDFrom(r.Context()), date, ts); err != nil {
		h.respondError(w, r, err, "Failed to delete journal entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type FavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

func (h *APIHandler) SetFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	date, ts, err := journalKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.SetFavorite(r.Context(), userIDFrom(r.Context()), date, ts, req.Favorite); err != nil {
		h.respondError(w, r, err, "Failed to update favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamJournalsHandler pushes the full entry list as a server-sent event on
// connect and after every change to the collection.
func (h *APIHandler) StreamJournalsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	updates, cancel := h.service.SubscribeJournals(userID)
	defer cancel()

	rc := http.NewResponseController(w)
	// the stream outlives the server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func() error {
		entries, err := h.service.ListJournals(ctx, userID)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: journals\ndata: %s\n\n", payload); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := send(); err != nil {
		h.logger.Warn("journal stream closed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			if err := send(); err != nil {
				h.logger.Warn("journal stream closed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// Session state

type LatestAnalysisResponse struct {
	Analysis *store.AnalysisRecord `json:"analysis"`
	Entry    *store.JournalEntry   `json:"entry"`
}

func (h *APIHandler) LatestAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	analysis, entry := h.service.LatestAnalysis(userIDFrom(r.Context()))
	if analysis == nil {
		http.Error(w, "No analysis yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, LatestAnalysisResponse{Analysis: analysis, Entry: entry})
}

func (h *APIHandler) QuotaHandler(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Quota(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err, "Failed to read quota")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Insights and reports

type WeeklyInsightResponse struct {
	Insight *string `json:"insight"`
}

func (h *APIHandler) WeeklyInsightHandler(w http.ResponseWriter, r *http.Request) {
	insight, ok, err := h.service.WeeklyInsight(r.Context(), userIDFrom(r.Context()))
	h.writeInsight(w, r, insight, ok, err)
}

func (h *APIHandler) RefreshWeeklyInsightHandler(w http.ResponseWriter, r *http.Request) {
	insight, ok, err := h.service.RefreshWeeklyInsight(r.Context(), userIDFrom(r.Context()))
	h.writeInsight(w, r, insight, ok, err)
}

func (h *APIHandler) writeInsight(w http.ResponseWriter, r *http.Request, insight string, ok bool, err error) {
	if err != nil {
		h.respondError(w, r, err, "Failed to compute weekly insight")
		return
	}
	var resp WeeklyInsightResponse
	if ok {
		resp.Insight = &insight
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) WeeklyReportHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.WeeklyReport(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err, "Failed to build weekly report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Moods

type SaveMoodRequest struct {
	Emoji     string `json:"emoji"`
	MoodIndex *int   `json:"moodIndex"`
}

func (h *APIHandler) SaveMoodHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.MoodIndex == nil {
		http.Error(w, "moodIndex is required", http.StatusBadRequest)
		return
	}

	mood, err := h.service.SaveMood(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "date"), req.Emoji, *req.MoodIndex)
	if err != nil {
		h.respondError(w, r, err, "Failed to save mood")
		return
	}
	writeJSON(w, http.StatusOK, mood)
}

func (h *APIHandler) GetMoodHandler(w http.ResponseWriter, r *http.Request) {
	mood, err := h.service.MoodByDate(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "date"))
	if err != nil {
		h.respondError(w, r, err, "Failed to get mood")
		return
	}
	if mood == nil {
		http.Error(w, "Mood not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, mood)
}

func (h *APIHandler) RecentMoodsHandler(w http.ResponseWriter, r *http.Request) {
	moods, err := h.service.RecentMoods(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err, "Failed to list moods")
		return
	}
	writeJSON(w, http.StatusOK, moods)
}

func (h *APIHandler) DeleteMoodHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMood(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "date")); err != nil {
		h.respondError(w, r, err, "Failed to delete mood")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) MoodStreakHandler(w http.ResponseWriter, r *http.Request) {
	streak, err := h.service.MoodStreak(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err, "Failed to compute mood streak")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"streak": streak})
}

// Entitlement

type SubscriptionRequest struct {
	PlanID string `json:"planId"`
}

func (h *APIHandler) SubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.UpgradeToPremium(r.Context(), userIDFrom(r.Context()), req.PlanID); err != nil {
		h.respondError(w, r, err, "Failed to update subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

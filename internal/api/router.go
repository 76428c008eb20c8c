package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"stamind.app/journal-service/internal/logging"
)

func NewRouter(apiHandler *APIHandler, logger *zap.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(StructuredLogger(logging.OrNop(logger)))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			// Journal routes
			r.Post("/journals", apiHandler.SubmitJournalHandler)
			r.Get("/journals", apiHandler.ListJournalsHandler)
			r.Get("/journals/stream", apiHandler.StreamJournalsHandler)
			r.Get("/journals/by-date/{date}", apiHandler.GetJournalByDateHandler)
			r.Delete("/journals/{date}/{timestamp}", apiHandler.DeleteJournalHandler)
			r.Put("/journals/{date}/{timestamp}/favorite", apiHandler.SetFavoriteHandler)

			r.Get("/analysis/latest", apiHandler.LatestAnalysisHandler)
			r.Get("/quota", apiHandler.QuotaHandler)

			// Insights and reports
			r.Get("/insights/weekly", apiHandler.WeeklyInsightHandler)
			r.Post("/insights/weekly/refresh", apiHandler.RefreshWeeklyInsightHandler)
			r.Get("/reports/weekly", apiHandler.WeeklyReportHandler)

			// Mood routes
			r.Get("/moods", apiHandler.RecentMoodsHandler)
			r.Get("/moods/streak", apiHandler.MoodStreakHandler)
			r.Get("/moods/{date}", apiHandler.GetMoodHandler)
			r.Put("/moods/{date}", apiHandler.SaveMoodHandler)
			r.Delete("/moods/{date}", apiHandler.DeleteMoodHandler)

			r.Post("/subscription", apiHandler.SubscriptionHandler)
		})
	})

	return r
}

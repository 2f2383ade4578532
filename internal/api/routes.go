package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - the dashboard frontend runs on its own origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://adperf.ignitemedia.io", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Creative analysis
		r.Post("/creatives/fatigue-score", h.HandleFatigueScore)

		// Audience analysis
		r.Post("/audiences/exclusion-advice", h.HandleExclusionAdvice)

		// Recommendation lifecycle
		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", h.HandleListRecommendations)
			r.Get("/snooze-options", h.HandleSnoozeOptions)
			r.Get("/actions", h.HandleRecentActions)
			r.Get("/selection/impact", h.HandleSelectionImpact)

			r.Post("/{id}/execute", h.HandleExecuteRecommendation)
			r.Post("/{id}/ignore", h.HandleIgnoreRecommendation)
			r.Post("/{id}/snooze", h.HandleSnoozeRecommendation)

			r.Post("/batch/execute", h.HandleBatchExecute)
			r.Post("/batch/ignore", h.HandleBatchIgnore)
		})
	})

	return r
}

package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mossline/wellspring-server/internal/alerts"
	"github.com/mossline/wellspring-server/internal/challenge"
	"github.com/mossline/wellspring-server/internal/coach"
	"github.com/mossline/wellspring-server/internal/config"
	"github.com/mossline/wellspring-server/internal/fit"
	"github.com/mossline/wellspring-server/internal/llm"
	"github.com/mossline/wellspring-server/internal/store"
)

// Deps bundles everything the handlers need.
type Deps struct {
	Config       *config.Config
	Store        *store.Store
	Orchestrator *challenge.Orchestrator
	Coach        *coach.Coach
	LLM          *llm.Client
	Fit          *fit.Client
	Alerts       *alerts.Broadcaster
}

// NewRouter builds the HTTP surface.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	handlers := NewHandlers(deps)
	limiter := NewRateLimiter(120, time.Minute)

	// Public endpoints
	r.Get("/health", handlers.Health)
	r.Get("/oauth2/fit/callback", handlers.FitCallback)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter))

		// SSE sets its own content type; keep it outside JSONContentType.
		r.Get("/alerts/stream", handlers.AlertStream)

		r.Group(func(r chi.Router) {
			r.Use(JSONContentType)

			r.Post("/mood", handlers.SubmitMood)
			r.Get("/mood", handlers.ListMood)
			r.Get("/stress/check", handlers.StressCheck)

			r.Post("/challenges/generate", handlers.GenerateChallenge)
			r.Post("/challenges/start", handlers.StartChallenge)
			r.Post("/challenges/task", handlers.UpdateTaskProgress)
			r.Post("/challenges/day", handlers.CompleteDay)
			r.Post("/challenges/complete", handlers.CompleteChallenge)
			r.Post("/challenges/discard", handlers.DiscardChallenge)
			r.Get("/challenges/active", handlers.ListActiveChallenges)
			r.Get("/challenges/history", handlers.ListChallengeHistory)
			r.Get("/dashboard", handlers.Dashboard)

			r.Post("/chat", handlers.Chat)
			r.Get("/recommendations", handlers.Recommendations)
			r.Get("/summary", handlers.Summary)

			r.Get("/fit/auth-url", handlers.FitAuthURL)
			r.Get("/fit/daily", handlers.FitDaily)
			r.Get("/fit/monthly", handlers.FitMonthly)
		})
	})

	return r
}

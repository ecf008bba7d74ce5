package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Beastie7/FlashLearn/internal/api"
	apiMiddleware "github.com/Beastie7/FlashLearn/internal/api/middleware"
)

// setupRouter creates the application router with all routes and
// middleware registered.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	tokenLifetime := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
	authHandler := api.NewAuthHandler(app.userService, app.jwtService, tokenLifetime)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	deckHandler := api.NewDeckHandler(app.deckService)
	studyHandler := api.NewStudyHandler(app.studyService)
	progressHandler := api.NewProgressHandler(app.progressService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Deck endpoints
			r.Post("/decks", deckHandler.Create)
			r.Get("/decks", deckHandler.List)
			r.Post("/decks/generate", deckHandler.Generate)
			r.Get("/decks/{id}", deckHandler.Get)
			r.Put("/decks/{id}", deckHandler.Update)
			r.Delete("/decks/{id}", deckHandler.Delete)

			// Study session endpoints
			r.Post("/decks/{id}/study", studyHandler.Begin)
			r.Get("/study/{id}", studyHandler.Current)
			r.Post("/study/{id}/flip", studyHandler.Flip)
			r.Post("/study/{id}/know", studyHandler.MarkKnown)
			r.Post("/study/{id}/review", studyHandler.MarkReview)
			r.Post("/study/{id}/restart", studyHandler.Restart)
			r.Post("/study/{id}/complete", studyHandler.Complete)

			// Progress endpoints
			r.Get("/progress", progressHandler.Get)
			r.Post("/progress/recompute", progressHandler.Recompute)
		})
	})

	// Health check endpoint
	r.Get("/health", app.healthHandler)

	return r
}

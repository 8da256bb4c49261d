package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP surface.
func Router(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/setup", h.SetupStatus)
		r.Post("/setup", h.Setup)
		r.Get("/config/maps-key", h.MapsKey)

		r.Post("/games", h.CreateGame)
		r.Route("/games/{id}", func(r chi.Router) {
			r.Get("/", h.GetGame)
			r.Post("/location", h.ResolveLocation)
			r.Post("/guess", h.SubmitGuess)
			r.Post("/confirm", h.ConfirmGuess)
			r.Post("/advance", h.AdvanceRound)
			r.Post("/player", h.SubmitPlayer)
			r.Post("/restart", h.RestartGame)
		})

		r.Get("/highscores", h.GetHighScores)
		r.Post("/highscores/dedup", h.DedupHighScores)
	})

	return r
}

package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/api/middleware"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/chat"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/config"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/gemini"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/handlers"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(cfg *config.Config, logger zerolog.Logger, chats *chat.Store, gem *gemini.Client, adapter store.Adapter) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024)) // messages cap at 10k characters
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - agents call from anywhere
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(chats, gem, adapter, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Get("/chats", h.ListChats)
	r.Get("/chats/{id}", h.GetChat)
	r.Get("/chats/{id}/history", h.History)

	// Mutating routes (require the API key when one is configured)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(cfg.AuthKeyHash))

		r.Post("/chats", h.CreateChat)
		r.Delete("/chats/{id}", h.DeleteChat)
		r.Post("/chats/{id}/messages", h.PostMessage)
		r.Post("/chats/{id}/ask", h.Ask)
	})

	return r
}

package http

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/netgraph/backend/internal/middleware"
)

func NewRouter(handler *Handler, authMiddleware *middleware.AuthMiddleware, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Service endpoints
	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready)
	r.Get("/live", handler.Live)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", handler.Login)
			r.Post("/refresh", handler.RefreshToken)
			r.Post("/logout", handler.Logout)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Post("/logout-all", handler.LogoutAll)
				r.Get("/me", handler.GetCurrentUser)
			})
		})

		// Everything touching the graph sits behind the auth guard.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/search", func(r chi.Router) {
				r.Get("/", handler.SearchNodes)
				r.Get("/{label}", handler.SearchNodesByLabel)
			})

			r.Route("/network", func(r chi.Router) {
				r.Get("/neighbors/{nodeID}", handler.GetNeighbors)
				r.Get("/shortest-path", handler.GetShortestPath)
				r.Get("/relationship-types", handler.GetRelationshipTypes)
			})

			r.Route("/cypher", func(r chi.Router) {
				r.Post("/execute", handler.ExecuteCypher)
				r.Get("/schema", handler.GetSchema)
				r.Get("/stats", handler.GetStats)
			})

			r.Route("/flag", func(r chi.Router) {
				r.Get("/{subjectID}", handler.GetFlagsBySubject)
				r.Post("/", handler.CreateFlag)
				r.Delete("/{flagID}", handler.DeleteFlag)
			})
		})
	})

	return r
}

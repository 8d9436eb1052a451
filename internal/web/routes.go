package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-finder/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	statsHandler := handlers.NewStatsHandler(s.engine, s.source, s.logger)
	indexHandler := handlers.NewIndexHandler(s.engine, statsHandler, s.logger)
	facesHandler := handlers.NewFacesHandler(s.engine, s.detector, s.source, s.config.Upload, s.logger)
	photosHandler := handlers.NewPhotosHandler(s.source, s.logger)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Faces
		r.Post("/faces/detect", facesHandler.Detect)
		r.Post("/faces/temp", facesHandler.StoreTemp)
		r.Post("/faces/search", facesHandler.Search)

		// Index
		r.Post("/index/reload", indexHandler.Reload)

		r.Get("/stats", statsHandler.Get)
		r.Get("/photos/{id}", photosHandler.Get)
	})
}

// Package web provides the HTTP server and JSON handlers for the
// rack-planning API.
package web

import (
	"context"
	"net/http"

	"github.com/avcrew/rackplan/internal/config"
	"github.com/avcrew/rackplan/internal/core"
	"github.com/avcrew/rackplan/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Server is the HTTP server for the rack-planning backend.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	// pingDB reports store liveness for /healthz; nil skips the check.
	pingDB func(ctx context.Context) error
}

// NewServer creates a Server around the core service.
func NewServer(service *core.Service, cfg *config.Config, pingDB func(ctx context.Context) error) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
		pingDB:  pingDB,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{s.cfg.CORS.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}).Handler)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Pullsheet import
		r.Post("/pullsheet/import", s.handleImportPullsheet)

		// Jobs
		r.Get("/jobs", s.handleListJobs)
		r.Post("/jobs", s.handleCreateJob)
		r.Put("/jobs/{id}", s.handleUpdateJob)
		r.Delete("/jobs/{id}", s.handleDeleteJob)

		// Rack drawings
		r.Get("/rack-drawings", s.handleListRackDrawings)
		r.Get("/jobs/{jobID}/rack-drawings", s.handleListJobRackDrawings)
		r.Delete("/rack-drawings/{id}", s.handleDeleteRackDrawing)

		// Placed equipment
		r.Get("/placed-equipment", s.handleListPlacedEquipment)
		r.Patch("/placed-equipment/{id}/position", s.handleMoveEquipment)
		r.Patch("/placed-equipment/{id}/name", s.handleRenameEquipment)

		// Pullsheet items within a job
		r.Get("/jobs/{jobID}/pullsheet-items/unplaced", s.handleUnplacedItems)
		r.Post("/jobs/{jobID}/pullsheet-items/place-generic", s.handlePlaceGeneric)

		// Generic equipment catalog
		r.Get("/generic-equipment", s.handleListGenericEquipment)
		r.Post("/generic-equipment", s.handleCreateGenericEquipment)
	})
}

// Start begins listening for HTTP requests and blocks until shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pingDB != nil {
		if err := s.pingDB(r.Context()); err != nil {
			s.respondError(w, r, err, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

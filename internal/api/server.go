package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nvalandra/redraft/internal/config"
	"github.com/nvalandra/redraft/internal/engine"
	"github.com/nvalandra/redraft/internal/pipeline"
	"github.com/nvalandra/redraft/internal/store"
)

// Server is the HTTP API server for redraft.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	engine       *engine.Engine
	docs         *store.Store
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, eng *engine.Engine, docs *store.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		engine:       eng,
		docs:         docs,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleImport)
		r.Get("/api/imports/{jobID}/status", s.handleImportStatus)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Post("/api/documents/{docID}/tools", s.handleToolCall)
		r.Get("/api/documents/{docID}/ghosts", s.handleListGhosts)
		r.Post("/api/documents/{docID}/ghosts", s.handleAddGhost)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

package server

import (
	"context"
	"net/http"
	"time"

	"lessup/internal/assets"
	"lessup/internal/catalog"
	"lessup/internal/config"
	"lessup/internal/ingest"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server exposes the catalog over HTTP: song listing, uploads and raw asset
// serving for the audio, covers and effects namespaces.
type Server struct {
	cfg      *config.Config
	assets   *assets.Store
	catalog  *catalog.Store
	pipeline *ingest.Pipeline
	logger   *logrus.Logger

	httpServer *http.Server
}

// New creates a server wired to the given collaborators.
func New(cfg *config.Config, assetStore *assets.Store, catalogStore *catalog.Store, pipeline *ingest.Pipeline, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		assets:   assetStore,
		catalog:  catalogStore,
		pipeline: pipeline,
		logger:   logger,
	}

	s.httpServer = &http.Server{
		Addr:        cfg.GetAddress(),
		Handler:     s.Router(),
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
	}

	return s
}

// Router builds the route table. Exposed separately so tests can drive the
// handler stack without binding a socket.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.Use(s.corsMiddleware)
	router.Use(s.requestLoggingMiddleware)

	router.HandleFunc("/api/songs", s.handleGetSongs).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/upload", s.handleUpload).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/audio/{filename}", s.handleAsset(assets.Audio)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/covers/{filename}", s.handleAsset(assets.Covers)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/effects/{filename}", s.handleAsset(assets.Effects)).Methods(http.MethodGet, http.MethodOptions)

	router.HandleFunc("/health", s.handleHealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	return router
}

// Start begins serving and blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address": s.cfg.GetAddress(),
	}).Info("Lessup server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the cliptrim daemon.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/cliptrim/internal/api/middleware"
	"github.com/ManuGH/cliptrim/internal/config"
	"github.com/ManuGH/cliptrim/internal/health"
	"github.com/ManuGH/cliptrim/internal/media"
	"github.com/ManuGH/cliptrim/internal/store"
	"github.com/ManuGH/cliptrim/internal/trim"
)

// Server wires storage, the media tool and the trim pipeline into handlers.
type Server struct {
	cfg       config.AppConfig
	store     *store.Store
	tool      media.Tool
	pipeline  *trim.Pipeline
	health    *health.Manager
	startTime time.Time
}

// New constructs the API server from its collaborators.
func New(cfg config.AppConfig, st *store.Store, tool media.Tool, pipeline *trim.Pipeline, healthMgr *health.Manager) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		tool:      tool,
		pipeline:  pipeline,
		health:    healthMgr,
		startTime: time.Now(),
	}
}

// Routes returns the fully wired HTTP handler.
func (s *Server) Routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins: s.cfg.AllowedOrigins,
		RateLimitRPM:   s.cfg.RateLimitRPM,
	})

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/videos", s.handleListVideos)
		r.Post("/trim", s.handleTrim)
		r.Get("/stream/uploads/{filename}", s.handleStreamUpload)
		r.Get("/stream/output/{filename}", s.handleStreamOutput)
		r.Get("/output/{filename}", s.handleDownloadOutput)
		r.Delete("/videos/{filename}", s.handleDeleteVideo)
		r.Delete("/output/{filename}", s.handleDeleteOutput)
	})

	return r
}

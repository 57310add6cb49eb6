package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/dbvault/internal/api/handler"
	mw "github.com/edvin/dbvault/internal/api/middleware"
	"github.com/edvin/dbvault/internal/backup"
	"github.com/edvin/dbvault/internal/core"
	"github.com/edvin/dbvault/internal/crypto"
)

type Server struct {
	router    chi.Router
	logger    zerolog.Logger
	services  *core.Services
	pool      *pgxpool.Pool
	cipher    *crypto.Cipher
	executor  *backup.Executor
	scheduler *backup.Scheduler
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, services *core.Services, cipher *crypto.Cipher, executor *backup.Executor, scheduler *backup.Scheduler) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger,
		services:  services,
		pool:      pool,
		cipher:    cipher,
		executor:  executor,
		scheduler: scheduler,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.services.Token))

		credential := handler.NewCredential(s.cipher)
		r.Post("/credentials", credential.Handle)

		connection := handler.NewConnection(s.services.Connection)
		r.Get("/connections", connection.List)
		r.Post("/connections", connection.Create)
		r.Post("/connections/test", connection.TestInline)
		r.Get("/connections/{id}", connection.Get)
		r.Put("/connections/{id}", connection.Update)
		r.Delete("/connections/{id}", connection.Delete)
		r.Post("/connections/{id}/test", connection.Test)

		schedule := handler.NewSchedule(s.services.Schedule, s.services.Connection)
		r.Get("/schedules", schedule.List)
		r.Post("/schedules", schedule.Create)
		r.Get("/schedules/{id}", schedule.Get)
		r.Put("/schedules/{id}", schedule.Update)
		r.Delete("/schedules/{id}", schedule.Delete)
		r.Post("/schedules/{id}/pause", schedule.Pause)
		r.Post("/schedules/{id}/resume", schedule.Resume)

		bkp := handler.NewBackup(s.services.Backup, s.services.Connection, s.executor, s.scheduler)
		r.Post("/backups/run", bkp.Run)
		r.Post("/backups/sweep", bkp.Sweep)
		r.Get("/backups", bkp.List)
		r.Get("/backups/{id}", bkp.Get)
		r.Delete("/backups/{id}", bkp.Delete)
		r.Post("/backups/{id}/cancel", bkp.Cancel)
		r.Post("/backups/{id}/download", bkp.Download)

		notification := handler.NewNotification(s.services.Notification)
		r.Get("/notifications", notification.List)
		r.Post("/notifications/{id}/read", notification.MarkRead)
		r.Post("/notifications/read-all", notification.MarkAllRead)

		token := handler.NewToken(s.services.Token)
		r.Get("/tokens", token.List)
		r.Post("/tokens", token.Create)
		r.Delete("/tokens/{id}", token.Revoke)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

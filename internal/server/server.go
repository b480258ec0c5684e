// Package server sets up the HTTP server, router, and all route definitions.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB → UserService, TaskService → UserHandler, TaskHandler
//
// All dependencies are wired here (New/setupRoutes), the composition root.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/taskmanager/internal/config"
	"github.com/sakif/taskmanager/internal/handler"
	"github.com/sakif/taskmanager/internal/middleware"
	sqliteRepo "github.com/sakif/taskmanager/internal/repository/sqlite"
	"github.com/sakif/taskmanager/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and closes it on shutdown, after
// in-flight requests have drained.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, creating the schema if needed, and wires every
// route.
//
// We import repository/sqlite as `sqliteRepo` to avoid confusion with the
// driver package.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath, sqliteRepo.Options{
		Logger:     logger,
		LogQueries: cfg.DBLogQueries,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /user/create                → create user
// GET    /user/all_users             → list users
// GET    /user/{id}                  → get user
// PUT    /user/update/{id}           → partial update
// DELETE /user/delete/{id}           → delete user and its tasks
// POST   /task/create?user_id=       → create task
// GET    /task/ (and /task)          → list tasks
// GET    /task/{id}                  → get task
// PUT    /task/update/{id}           → partial update
// DELETE /task/delete/{id}           → delete task
// GET    /task/user/{user_id}/tasks  → tasks of one user
// GET    /healthz                    → database ping
// GET    /metrics                    → Prometheus exposition
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns an id to each request, read by Logger and writeError
// 2. RealIP: extracts the client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Metrics: counts requests per route pattern
// 5. Recoverer: turns panics into 500s; sits inside Logger so they get logged
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)

	userService := service.NewUserService(s.db, s.logger)
	taskService := service.NewTaskService(s.db, s.db, s.logger)

	userHandler := handler.NewUserHandler(userService, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/user", func(r chi.Router) {
		r.Post("/create", userHandler.HandleCreate)
		r.Get("/all_users", userHandler.HandleList)
		r.Get("/{id}", userHandler.HandleGetByID)
		r.Put("/update/{id}", userHandler.HandleUpdate)
		r.Delete("/delete/{id}", userHandler.HandleDelete)
	})

	s.router.Route("/task", func(r chi.Router) {
		r.Post("/create", taskHandler.HandleCreate)
		r.Get("/", taskHandler.HandleList)
		r.Get("/{id}", taskHandler.HandleGetByID)
		r.Put("/update/{id}", taskHandler.HandleUpdate)
		r.Delete("/delete/{id}", taskHandler.HandleDelete)
		r.Get("/user/{user_id}/tasks", taskHandler.HandleListByUser)
	})
}

// Start listens on the configured port and blocks until SIGINT or SIGTERM,
// then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		s.db.Close()
		return fmt.Errorf("listening on port %d: %w", s.config.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait up to ShutdownTimeout for in-flight requests to finish
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.db.Close()

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received",
			slog.Duration("timeout", s.config.ShutdownTimeout),
		)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

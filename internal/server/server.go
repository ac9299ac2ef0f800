package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jjudge-oj/workbench/config"
	"github.com/jjudge-oj/workbench/internal/handlers"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	core       *Core
	logger     *slog.Logger

	cancelBackground context.CancelFunc
	background       sync.WaitGroup
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	core, err := NewCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewWithCore(cfg, core, jwtSecret), nil
}

// NewWithCore builds the server around an existing core.
func NewWithCore(cfg config.Config, core *Core, jwtSecret string) *Server {
	authMiddleware := handlers.RequireAuth(jwtSecret)
	wb := handlers.Workbench{
		Platform:     core.Platform,
		Executor:     core.Executor,
		Solutions:    core.Solutions,
		Problems:     core.Problems,
		Orchestrator: core.Orchestrator,
		Registry:     core.Registry,
		Archive:      core.Archive,
		Logger:       core.Logger,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	router.Get("/healthz", handlers.Healthz)

	// The solved stream stays open for as long as the view is shown.
	stream := handlers.NewEventsHandler(core.Bus, core.Logger)
	router.With(authMiddleware).Get("/events/solved", stream.Solved)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60*time.Second), authMiddleware)
		r.Route("/problems", func(r chi.Router) {
			handlers.ProblemRouter(r, wb)
		})
		r.Route("/solved", func(r chi.Router) {
			handlers.SolvedRouter(r, wb)
		})
		r.Route("/contests", func(r chi.Router) {
			handlers.ContestRouter(r, core.Directory, core.Logger)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	httpServer.RegisterOnShutdown(stream.Close)

	return &Server{
		httpServer: httpServer,
		router:     router,
		core:       core,
		logger:     core.Logger,
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Core exposes the collaborators behind the routes.
func (s *Server) Core() *Core {
	return s.core
}

// Start runs the background workers (the solved follower and, when one is
// configured, the broker relay) and the HTTP server.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelBackground = cancel

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.core.Solutions.Follow(ctx)
	}()
	if s.core.Relay != nil {
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			if err := s.core.Relay.Run(ctx); err != nil {
				s.logger.Error("solved relay stopped", "error", err)
			}
		}()
	}

	s.logger.Info("workbench listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if s.cancelBackground != nil {
		s.cancelBackground()
		s.background.Wait()
	}
	return errors.Join(err, s.core.Close())
}

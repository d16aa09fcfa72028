// Package envserver exposes gauntlet environments over HTTP so an external
// trainer can drive them. Each environment lives in a runner.Hub behind a
// bridge and is addressed by a server-generated id.
package envserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/runner"
)

// Factory creates a fresh environment for a gauntlet id.
type Factory func(gauntletID string) (runner.Env, error)

// ErrUnknownGauntlet is returned by factories for ids that are not registered.
var ErrUnknownGauntlet = errors.New("envserver: unknown gauntlet")

// Config holds configuration for the server.
type Config struct {
	RateLimit   float64       // requests per second per client; 0 disables
	Burst       int           // rate limiter burst
	MaxEnvs     int           // open environments; 0 means unlimited
	StepWait    time.Duration // per-request wait on an environment
	IdleTimeout time.Duration // environments unused this long are closed
	MaxBody     int64         // request body limit in bytes
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RateLimit:   200,
		Burst:       50,
		MaxEnvs:     64,
		StepWait:    30 * time.Second,
		IdleTimeout: 10 * time.Minute,
		MaxBody:     64 << 10,
	}
}

// Server handles HTTP requests for remote environments.
type Server struct {
	config  Config
	router  chi.Router
	hub     *runner.Hub
	factory Factory
	catalog func() any
	limiter *RateLimiter
	logger  *log.Logger

	done     chan struct{}
	doneOnce sync.Once
}

// NewServer creates a server. catalog returns the body of GET /gauntlets.
func NewServer(cfg Config, factory Factory, catalog func() any, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultConfig().MaxBody
	}

	hubCfg := runner.DefaultHubConfig()
	hubCfg.MaxEnvs = cfg.MaxEnvs
	hubCfg.IdleTimeout = cfg.IdleTimeout

	s := &Server{
		config:  cfg,
		router:  chi.NewRouter(),
		hub:     runner.NewHub(hubCfg),
		factory: factory,
		catalog: catalog,
		limiter: NewRateLimiter(cfg.RateLimit, cfg.Burst),
		logger:  logger,
		done:    make(chan struct{}),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.SetHeader("Content-Type", "application/json"))
	s.router.Use(s.limiter.Middleware)
	s.router.Use(middleware.RequestSize(s.config.MaxBody))

	s.router.Get("/healthz", s.health)
	s.router.Get("/gauntlets", s.listGauntlets)

	s.router.Route("/envs", func(r chi.Router) {
		r.Get("/", s.listEnvs)
		r.Post("/", s.createEnv)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/reset", s.reset)
			r.Post("/step", s.step)
			r.Get("/mask", s.mask)
			r.Get("/observation", s.observe)
			r.Get("/state", s.state)
			r.Delete("/", s.closeEnv)
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start begins idle environment cleanup.
func (s *Server) Start() {
	s.hub.Start()
	if s.config.IdleTimeout > 0 {
		go s.forgetClients()
	}
}

// Stop closes every environment.
func (s *Server) Stop() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
	s.hub.Stop()
}

func (s *Server) forgetClients() {
	ticker := time.NewTicker(s.config.IdleTimeout)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if n := s.limiter.Forget(now.Add(-s.config.IdleTimeout)); n > 0 {
				s.logger.Debug("dropped idle rate limiters", "count", n)
			}
		case <-s.done:
			return
		}
	}
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Start()
	defer s.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("env server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down env server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Response wraps API responses.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Error: message})
}

// bridgeError maps bridge failures onto status codes.
func (s *Server) bridgeError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, runner.ErrClosed):
		writeError(w, http.StatusGone, "environment closed")
	case errors.Is(err, runner.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "environment timed out; the request may still apply, fetch the observation to resync")
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		s.logger.Debug("request cancelled", "env", id)
	default:
		s.logger.Error("environment failed", "env", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

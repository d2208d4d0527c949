// Package server provides the HTTP API for job fit analysis.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/fit-signals/internal/analysis"
	"github.com/spigell/fit-signals/internal/contract"
)

const (
	defaultListen       = ":8080"
	defaultMaxBodyBytes = 1 << 20
	shutdownTimeout     = 30 * time.Second
)

// Analyzer is the request collaborator behind the handlers.
type Analyzer interface {
	Analyze(ctx context.Context, variant string, in analysis.Input) (contract.Outcome, error)
	Advise(ctx context.Context, in analysis.Input) (*analysis.Advice, error)
	Registry() *contract.Registry
}

// Config holds server configuration.
type Config struct {
	Listen         string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBodyBytes   int64
	CORSOrigin     string
	DefaultVariant string
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	cfg        Config
	logger     *zap.Logger
}

// New creates a new server instance.
func New(cfg Config, analyzer Analyzer, logger *zap.Logger) *Server {
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.DefaultVariant == "" {
		cfg.DefaultVariant = contract.VariantRisk
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{analyzer: analyzer, cfg: cfg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/analyze/{variant}", s.handleAnalyze)
	mux.HandleFunc("POST /api/advice", s.handleAdvice)
	mux.HandleFunc("GET /api/variants", s.handleVariants)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	for path, allow := range map[string]string{
		"/api/analyze":           http.MethodPost,
		"/api/analyze/{variant}": http.MethodPost,
		"/api/advice":            http.MethodPost,
		"/api/variants":          http.MethodGet,
		"/healthz":               http.MethodGet,
	} {
		mux.HandleFunc(path, s.methodNotAllowed(allow))
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.withRequestID(s.withLogging(s.withRecover(s.withCORS(mux)))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("listen", listener.Addr().String()))
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

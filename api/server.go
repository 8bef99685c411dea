// Package api - Thin, deterministic API layer
// The API is ONLY responsible for: input ingestion, solver orchestration, output serialization.
// The API NEVER performs balance math.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chainflux/core/output"
	"chainflux/internal/config"
	"chainflux/internal/errors"
	"chainflux/internal/logging"
)

// Server is the API server
type Server struct {
	handler *Handler
	mux     *http.ServeMux
	version string
	cfg     config.ServerConfig
}

// NewServer creates a new API server
func NewServer(version string, cfg *config.Config) *Server {
	handler := NewHandler(output.Options{
		Precision:    cfg.Output.Precision,
		ShowPower:    cfg.Output.ShowPower,
		ShowMachines: cfg.Output.ShowMachines,
	})
	mux := http.NewServeMux()

	s := &Server{
		handler: handler,
		mux:     mux,
		version: version,
		cfg:     cfg.Server,
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /api/solve", s.handleSolve)
	s.mux.HandleFunc("POST /api/inspect", s.handleInspect)

	// Supporting endpoints
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/version", s.handleVersion)
}

// handleSolve handles POST /api/solve
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := s.handler.solve(data)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, &SolveResponse{
		Report: report,
		Metadata: &ResponseMetadata{
			InputHash:     computeInputHash(data),
			EngineVersion: s.version,
			DurationMs:    time.Since(start).Milliseconds(),
		},
	}, http.StatusOK)
}

// handleInspect handles POST /api/inspect
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp, err := s.handler.inspect(data)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, resp, http.StatusOK)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "chainflux",
		"api_version": "v1",
	}, http.StatusOK)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "reading request body", err)
	}
	if len(data) == 0 {
		return nil, errors.Input("empty request body")
	}
	return data, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	t := errors.TypeOf(err)
	s.writeJSON(w, &ErrorEnvelope{
		Error: err.Error(),
		Type:  string(t),
	}, statusFor(t))
}

// statusFor maps error types to HTTP status codes
func statusFor(t errors.Type) int {
	switch t {
	case errors.TypeInput, errors.TypeParsing, errors.TypeValidation, errors.TypeNotSupported:
		return http.StatusBadRequest
	case errors.TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ServeHTTP implements http.Handler with request logging
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

	s.mux.ServeHTTP(sw, r)

	logging.Info("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", sw.status),
		zap.Duration("duration", time.Since(start)))
}

// statusWriter records the status code written by a handler
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ListenAndServe starts the server without graceful shutdown
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Serve runs the server until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logging.Info("server listening", zap.String("addr", s.cfg.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// computeInputHash returns the sha256 of the submitted chain document
func computeInputHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

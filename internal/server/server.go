// Package server exposes the query pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "founder-bi-agent/internal/common/errors"
	"founder-bi-agent/internal/common/validation"
	"founder-bi-agent/internal/models"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds the size of a query request body.
const maxBodyBytes = 1 << 20

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Answerer runs one query end to end.
type Answerer interface {
	Answer(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// Checks are run by /ready, keyed by dependency name.
	Checks map[string]ReadinessCheck
}

type Server struct {
	opts      Options
	answerer  Answerer
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    Logger
	http      *http.Server
}

func New(opts Options, answerer Answerer, log Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}
	s := &Server{
		opts:      opts,
		answerer:  answerer,
		validator: validation.MustValidator(validation.QueryRequestSchema),
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}
	s.http = &http.Server{
		Addr:         opts.Address,
		Handler:      s.Handler(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return requestID(accessLog(s.logger, cors(mux)))
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.opts.Address})
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down", nil)
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewInvalidRequestError("unreadable body"))
		return
	}

	result, err := s.validator.ValidateBytes(body)
	if err != nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	if !result.Valid {
		s.errors.WriteHTTPError(w, r, apperrors.NewInvalidRequestError(result.Summary()))
		return
	}

	var req models.QueryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	resp, err := s.answerer.Answer(r.Context(), req)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.opts.Checks))
	for name, check := range s.opts.Checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			s.logger.Warn("readiness check failed", map[string]interface{}{
				"dependency": name,
				"error":      err.Error(),
			})
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package httpapi serves reports over HTTP.
//
// Routes:
//
//	POST /snapshot   full report, requires userId, idempotent per key
//	GET  /snapshot   redacted preview by ?address=
//	GET  /healthz    liveness
//	GET  /metrics    Prometheus metrics
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/buildcheck/internal/engine"
	"github.com/roach88/buildcheck/internal/ir"
)

// maxBodyBytes caps POST bodies.
const maxBodyBytes = 1 << 16

// Server is the HTTP front end of an engine.Service.
type Server struct {
	svc      *engine.Service
	logger   *slog.Logger
	validate *validator.Validate
	registry *prometheus.Registry
	metrics  *metrics
}

// New returns a server with its own metrics registry.
func New(svc *engine.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	return &Server{
		svc:      svc,
		logger:   logger,
		validate: validator.New(),
		registry: reg,
		metrics:  newMetrics(reg),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.logRequests,
	)

	r.Post("/snapshot", s.handlePurchase)
	r.Get("/snapshot", s.handlePreview)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "engineVersion": ir.EngineVersion})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Serve listens on addr and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string, readHeaderTimeout time.Duration) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: readHeaderTimeout,
	}

	eg.Go(func() error {
		s.logger.Info("serving", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
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
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type purchaseResponse struct {
	Success        bool              `json:"success"`
	Snapshot       ir.SnapshotResult `json:"snapshot"`
	CreditDeducted bool              `json:"creditDeducted"`
	IdempotencyKey string            `json:"idempotencyKey"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(s.metrics.duration.WithLabelValues("purchase"))
	defer timer.ObserveDuration()

	var req engine.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.fail(w, "purchase", http.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		return
	}
	req.Address = strings.TrimSpace(req.Address)
	req.UserID = strings.TrimSpace(req.UserID)
	if err := s.validate.Struct(req); err != nil {
		s.failRequest(w, "purchase", validationError(err))
		return
	}

	resp, err := s.svc.Purchase(r.Context(), req)
	if err != nil {
		s.failRequest(w, "purchase", err)
		return
	}

	outcome := "created"
	if resp.Replayed {
		outcome = "replayed"
		w.Header().Set("Idempotent-Replayed", "true")
	}
	s.metrics.requests.WithLabelValues("purchase", outcome).Inc()
	s.metrics.status.WithLabelValues(string(resp.Snapshot.OverallStatus)).Inc()

	writeJSON(w, http.StatusOK, purchaseResponse{
		Success:        true,
		Snapshot:       resp.Snapshot,
		CreditDeducted: true,
		IdempotencyKey: resp.IdempotencyKey,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(s.metrics.duration.WithLabelValues("preview"))
	defer timer.ObserveDuration()

	preview, err := s.svc.Preview(r.Context(), r.URL.Query().Get("address"))
	if err != nil {
		s.failRequest(w, "preview", err)
		return
	}
	s.metrics.requests.WithLabelValues("preview", "ok").Inc()
	writeJSON(w, http.StatusOK, preview)
}

// validationError maps struct validation failures onto request errors. The
// address is reported before the user.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = true
	}
	switch {
	case fields["Address"]:
		return &engine.RequestError{Code: engine.ErrCodeMissingAddress, Message: "address is required"}
	case fields["UserID"]:
		return &engine.RequestError{Code: engine.ErrCodeMissingUser, Message: "userId is required"}
	}
	return err
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	code, ok := engine.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case engine.ErrCodeMissingAddress:
		return http.StatusBadRequest
	case engine.ErrCodeMissingUser:
		return http.StatusUnauthorized
	case engine.ErrCodeIdempotencyConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) failRequest(w http.ResponseWriter, endpoint string, err error) {
	status := StatusFor(err)
	code, ok := engine.CodeOf(err)
	message := err.Error()
	if !ok {
		code = "INTERNAL"
		message = "internal error"
		s.logger.Error("request failed", "endpoint", endpoint, "error", err)
	} else {
		var re *engine.RequestError
		if errors.As(err, &re) {
			message = re.Message
		}
	}
	s.fail(w, endpoint, status, string(code), message)
}

func (s *Server) fail(w http.ResponseWriter, endpoint string, status int, code, message string) {
	s.metrics.requests.WithLabelValues(endpoint, code).Inc()
	writeJSON(w, status, errorResponse{Code: code, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// Package server exposes resolution over HTTP.
//
// Routes:
//
//	POST /v1/resolve        resolve requirements for one environment
//	GET  /v1/environments   list the configured environment names
//	GET  /healthz           liveness
//	GET  /metrics           Prometheus metrics
//
// Every request shares the engine, and with it one process-lifetime cache.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/wheelres/pkg/config"
	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/graph"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/resolve"
)

// Defaults for unset Config fields.
const (
	DefaultTimeout      = 5 * time.Minute
	DefaultMaxBodyBytes = 1 << 20
)

// Config wires a Server.
type Config struct {
	Engine *resolve.Engine
	// Environments are selectable by name; the first is the default.
	Environments []*model.Environment
	// Policy applies to environments given inline in a request.
	Policy config.PolicyConfig
	// Registry receives the server's collectors and backs /metrics. Nil
	// means a fresh registry.
	Registry *prometheus.Registry
	Logger   *log.Logger
	// Timeout bounds one resolution.
	Timeout      time.Duration
	MaxBodyBytes int64
}

// Server handles HTTP requests.
type Server struct {
	engine   *resolve.Engine
	envs     []*model.Environment
	byName   map[string]*model.Environment
	policy   config.PolicyConfig
	registry *prometheus.Registry
	logger   *log.Logger
	timeout  time.Duration
	maxBody  int64

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a server. It fails when the server's collectors cannot be
// registered.
func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("server: no engine")
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		engine:   cfg.Engine,
		envs:     cfg.Environments,
		byName:   make(map[string]*model.Environment, len(cfg.Environments)),
		policy:   cfg.Policy,
		registry: cfg.Registry,
		logger:   cfg.Logger,
		timeout:  cfg.Timeout,
		maxBody:  cfg.MaxBodyBytes,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wheelres",
			Subsystem: "http",
			Name:      "resolutions_total",
			Help:      "Resolutions served, by outcome code.",
		}, []string{"code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wheelres",
			Subsystem: "http",
			Name:      "resolution_seconds",
			Help:      "Wall time of served resolutions.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"cached"}),
	}
	for _, env := range cfg.Environments {
		s.byName[env.ID()] = env
	}
	for _, c := range []prometheus.Collector{s.requests, s.duration} {
		if err := s.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Get("/environments", s.handleEnvironments)
		r.Post("/resolve", s.handleResolve)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEnvironments(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, len(s.envs))
	for i, env := range s.envs {
		names[i] = env.ID()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"environments": names})
}

// ResolveRequest is the body of POST /v1/resolve. Environment names a
// configured environment; Target describes one inline instead. With
// neither, the first configured environment is used.
type ResolveRequest struct {
	Requirements []string                  `json:"requirements"`
	Environment  string                    `json:"environment,omitempty"`
	Target       *config.EnvironmentConfig `json:"target,omitempty"`
}

// ResolveResponse is the body of a successful resolution.
type ResolveResponse struct {
	RunID       string              `json:"run_id"`
	Environment string              `json:"environment"`
	Graph       *graph.Graph        `json:"graph"`
	Diagnostics resolve.Diagnostics `json:"diagnostics"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	RunID     string             `json:"run_id,omitempty"`
	Code      perrors.Code       `json:"code"`
	Message   string             `json:"message"`
	Detail    string             `json:"detail,omitempty"`
	Project   string             `json:"project,omitempty"`
	Version   string             `json:"version,omitempty"`
	Conflicts []perrors.Conflict `json:"conflicts,omitempty"`
	Attempts  []perrors.Attempt  `json:"attempts,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, "", perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "decode request"))
		return
	}
	if len(req.Requirements) == 0 {
		s.writeError(w, "", perrors.New(perrors.ErrCodeInvalidRequirement, "no requirements given"))
		return
	}
	env, err := s.environment(req)
	if err != nil {
		s.writeError(w, "", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	res := s.engine.Resolve(ctx, req.Requirements, env)

	code := "OK"
	if !res.OK() {
		code = string(res.Err.Code)
	}
	s.requests.WithLabelValues(code).Inc()
	s.duration.WithLabelValues(boolLabel(res.Diagnostics.GraphCached)).Observe(res.Diagnostics.Duration.Seconds())

	if !res.OK() {
		s.writeError(w, res.RunID, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, ResolveResponse{
		RunID:       res.RunID,
		Environment: res.Environment,
		Graph:       res.Graph,
		Diagnostics: res.Diagnostics,
	})
}

func (s *Server) environment(req ResolveRequest) (*model.Environment, error) {
	switch {
	case req.Target != nil && req.Environment != "":
		return nil, perrors.New(perrors.ErrCodeInvalidEnvironment, "give either environment or target, not both")
	case req.Target != nil:
		if req.Target.Name == "" {
			req.Target.Name = "inline"
		}
		return req.Target.Build(s.policy)
	case req.Environment != "":
		env, ok := s.byName[req.Environment]
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidEnvironment, "unknown environment %q", req.Environment)
		}
		return env, nil
	case len(s.envs) > 0:
		return s.envs[0], nil
	default:
		return nil, perrors.New(perrors.ErrCodeInvalidEnvironment, "no environment given and none configured")
	}
}

func (s *Server) writeError(w http.ResponseWriter, runID string, err error) {
	e, ok := perrors.As(err)
	if !ok {
		e = perrors.Wrap(perrors.ErrCodeInternal, err, "request failed")
	}
	status := statusOf(e.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("resolution failed", "run", runID, "code", e.Code, "error", e)
	}
	resp := ErrorResponse{
		RunID:     runID,
		Code:      e.Code,
		Message:   perrors.UserMessage(e),
		Project:   e.Project,
		Version:   e.Version,
		Conflicts: e.Conflicts,
		Attempts:  e.Attempts,
	}
	if e.Cause != nil {
		resp.Detail = e.Cause.Error()
	}
	writeJSON(w, status, resp)
}

// statusOf maps an error code to an HTTP status.
func statusOf(code perrors.Code) int {
	switch code {
	case perrors.ErrCodeInvalidRequirement, perrors.ErrCodeInvalidEnvironment, perrors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case perrors.ErrCodeUnsatisfiable, perrors.ErrCodeTooDeep:
		return http.StatusUnprocessableEntity
	case perrors.ErrCodeMetadataUnavailable, perrors.ErrCodeArtifactFetch:
		return http.StatusBadGateway
	case perrors.ErrCodeCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

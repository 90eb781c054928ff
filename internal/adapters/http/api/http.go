// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/winequality/internal/classifier"
	"github.com/okian/winequality/internal/domain/features"
	"github.com/okian/winequality/internal/domain/quality"
	"github.com/okian/winequality/pkg/logger"
	"github.com/okian/winequality/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
)

const defaultMaxBodyBytes = 64 << 10

// Analyzer runs the collect → infer pipeline.
type Analyzer interface {
	Collect(ctx context.Context, values features.Values) (features.Vector, []features.Adjustment, error)
	Analyze(ctx context.Context, v features.Vector) quality.Outcome
}

// ModelProvider exposes the loaded artifact.
type ModelProvider interface {
	ModelInfo() (classifier.Info, bool)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Analyzer
	ModelProvider
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps Dependencies

	maxBodyBytes int64
	defaultLang  language.Tag
	schema       *jsonschema.Schema
	logger       logger.Logger

	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *dashboardHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies for form and JSON analysis.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithDefaultLang sets the locale used when the client expresses none.
func WithDefaultLang(tag language.Tag) Option {
	return func(s *Server) {
		s.defaultLang = tag
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) (*Server, error) {
	if deps == nil {
		return nil, fmt.Errorf("%w: nil dependencies", ErrServe)
	}
	s := &Server{
		deps:         deps,
		maxBodyBytes: defaultMaxBodyBytes,
		defaultLang:  language.English,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	schema, err := compileAnalyzeSchema()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServe, err)
	}
	s.schema = schema

	dash, err := newDashboardHandler(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServe, err)
	}
	s.dashboardHandler = dash
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	return s, nil
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/api/v1/analyze", MetricsMiddleware(s.HandleAnalyzeJSON, "api_analyze"))
	mux.HandleFunc("/api/v1/fields", MetricsMiddleware(s.HandleFields, "api_fields"))
	mux.HandleFunc("/api/v1/model", MetricsMiddleware(s.HandleModel, "api_model"))
	mux.HandleFunc("/api/v1/model/bom", MetricsMiddleware(s.HandleModelBOM, "api_model_bom"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/analyze", MetricsMiddleware(s.dashboardHandler.HandleAnalyzeForm, "analyze"))
	mux.HandleFunc("/", MetricsMiddleware(s.dashboardHandler.HandleDashboard, "dashboard"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

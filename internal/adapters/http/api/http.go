// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/predictlink/verdict/internal/domain/features"
	"github.com/predictlink/verdict/internal/domain/fraud"
	"github.com/predictlink/verdict/internal/domain/inference"
	"github.com/predictlink/verdict/internal/domain/model"
	"github.com/predictlink/verdict/internal/domain/scoring"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Analyze runs the full decision pipeline for one event.
	Analyze(ctx context.Context, req model.AnalysisRequest) (inference.Result, error)

	// AnalyzeBatch evaluates several events with per-item error isolation.
	AnalyzeBatch(ctx context.Context, reqs []model.AnalysisRequest) (inference.BatchResult, error)

	// Classify runs the keyword classifier alone.
	Classify(ctx context.Context, req model.AnalysisRequest) inference.ClassificationReport

	// Confidence scores a caller-supplied feature record directly.
	Confidence(ctx context.Context, f features.Set) (scoring.Result, error)

	// AssessFraud runs the anomaly assessor on a caller-supplied proposal.
	AssessFraud(ctx context.Context, p fraud.Proposal) fraud.Assessment

	// ModelStatus reports scorer readiness and artifact state.
	ModelStatus() scoring.ModelStatus

	// MaxBatchSize returns the configured batch limit.
	MaxBatchSize() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler       *RootHandler
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	analyzeHandler    *AnalyzeHandler
	batchHandler      *BatchHandler
	classifyHandler   *ClassifyHandler
	confidenceHandler *ConfidenceHandler
	fraudHandler      *FraudHandler
	statusHandler     *StatusHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		rootHandler:       NewRootHandler(),
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		analyzeHandler:    NewAnalyzeHandler(deps),
		batchHandler:      NewBatchHandler(deps),
		classifyHandler:   NewClassifyHandler(deps),
		confidenceHandler: NewConfidenceHandler(deps),
		fraudHandler:      NewFraudHandler(deps),
		statusHandler:     NewStatusHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/api/v1/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/api/v1/batch-analyze", MetricsMiddleware(s.batchHandler.HandleBatchAnalyze, "batch_analyze"))
	mux.HandleFunc("/api/v1/classify", MetricsMiddleware(s.classifyHandler.HandleClassify, "classify"))
	mux.HandleFunc("/api/v1/confidence", MetricsMiddleware(s.confidenceHandler.HandleConfidence, "confidence"))
	mux.HandleFunc("/api/v1/fraud", MetricsMiddleware(s.fraudHandler.HandleFraud, "fraud"))
	mux.HandleFunc("/api/v1/models/status", MetricsMiddleware(s.statusHandler.HandleStatus, "models_status"))
	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/", s.rootHandler.HandleRoot)
}

// validateAnalysisRequest enforces the wire schema's required fields.
func validateAnalysisRequest(req model.AnalysisRequest) error {
	switch {
	case strings.TrimSpace(req.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(req.Description) == "":
		return errors.New("missing description")
	}
	return nil
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

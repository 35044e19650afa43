// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/predictlink/verdict/internal/domain/features"
	"github.com/predictlink/verdict/internal/domain/scoring"
)

// ConfidenceHandler handles direct feature-scoring requests.
type ConfidenceHandler struct {
	deps Dependencies
}

// NewConfidenceHandler creates a new confidence handler.
func NewConfidenceHandler(deps Dependencies) *ConfidenceHandler {
	return &ConfidenceHandler{deps: deps}
}

// confidenceRequest mirrors the wire schema for POST /api/v1/confidence.
// Every field is required; pointers distinguish absent from zero.
type confidenceRequest struct {
	EventID              string   `json:"event_id"`
	SourceCount          *float64 `json:"source_count"`
	AvgCredibility       *float64 `json:"avg_credibility"`
	SourceDiversity      *float64 `json:"source_diversity"`
	ConsensusPercentage  *float64 `json:"consensus_percentage"`
	ConflictCount        *float64 `json:"conflict_count"`
	TimeSinceEventHours  *float64 `json:"time_since_event_hours"`
	CategoryConfidence   *float64 `json:"category_confidence"`
	HistoricalAccuracy   *float64 `json:"historical_accuracy"`
	DataConsistencyScore *float64 `json:"data_consistency_score"`
	SocialSentiment      *float64 `json:"social_sentiment"`
}

// confidenceResponse echoes the scored event id alongside the result.
type confidenceResponse struct {
	EventID         string  `json:"event_id"`
	ConfidenceScore float64 `json:"confidence_score"`
	Recommendation  string  `json:"recommendation"`
}

func (c confidenceRequest) validate() error {
	if strings.TrimSpace(c.EventID) == "" {
		return errors.New("missing event_id")
	}
	fields := map[string]*float64{
		"source_count":           c.SourceCount,
		"avg_credibility":        c.AvgCredibility,
		"source_diversity":       c.SourceDiversity,
		"consensus_percentage":   c.ConsensusPercentage,
		"conflict_count":         c.ConflictCount,
		"time_since_event_hours": c.TimeSinceEventHours,
		"category_confidence":    c.CategoryConfidence,
		"historical_accuracy":    c.HistoricalAccuracy,
		"data_consistency_score": c.DataConsistencyScore,
		"social_sentiment":       c.SocialSentiment,
	}
	for name, v := range fields {
		if v == nil {
			return fmt.Errorf("missing %s", name)
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return fmt.Errorf("non-finite %s", name)
		}
	}
	return nil
}

func (c confidenceRequest) toSet() features.Set {
	return features.Set{
		SourceCount:          *c.SourceCount,
		AvgCredibility:       *c.AvgCredibility,
		SourceDiversity:      *c.SourceDiversity,
		ConsensusPercentage:  *c.ConsensusPercentage,
		ConflictCount:        *c.ConflictCount,
		TimeSinceEventHours:  *c.TimeSinceEventHours,
		CategoryConfidence:   *c.CategoryConfidence,
		HistoricalAccuracy:   *c.HistoricalAccuracy,
		DataConsistencyScore: *c.DataConsistencyScore,
		SocialSentiment:      *c.SocialSentiment,
	}
}

// HandleConfidence handles POST /api/v1/confidence requests.
func (h *ConfidenceHandler) HandleConfidence(w http.ResponseWriter, r *http.Request) {
	const op = "api.confidence"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req confidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.Confidence(r.Context(), req.toSet().Normalize())
	if err != nil {
		if errors.Is(err, scoring.ErrNotReady) {
			writeError(w, http.StatusServiceUnavailable, "not_ready", Wrap(op, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, confidenceResponse{
		EventID:         req.EventID,
		ConfidenceScore: result.ConfidenceScore,
		Recommendation:  result.Recommendation,
	})
}

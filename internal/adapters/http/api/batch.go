// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/predictlink/verdict/internal/domain/model"
)

// BatchHandler handles batch analysis requests.
type BatchHandler struct {
	deps Dependencies
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps Dependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

// batchItemError is the wire shape of one failed batch item.
type batchItemError struct {
	EventID string `json:"event_id"`
	Error   string `json:"error"`
}

// batchResponse mirrors the wire schema for POST /api/v1/batch-analyze.
// Results holds the full result for successful items and an event_id/error
// pair for failed ones, in submission order.
type batchResponse struct {
	Results    []any `json:"results"`
	Total      int   `json:"total"`
	Successful int   `json:"successful"`
}

// HandleBatchAnalyze handles POST /api/v1/batch-analyze requests. The body
// is a JSON array of analysis requests.
func (h *BatchHandler) HandleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch_analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var reqs []model.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if limit := h.deps.MaxBatchSize(); len(reqs) > limit {
		writeError(w, http.StatusBadRequest, "bad_request",
			NewKind(op, fmt.Errorf("%w: batch of %d exceeds limit %d", ErrBadRequest, len(reqs), limit)))
		return
	}

	batch, err := h.deps.AnalyzeBatch(r.Context(), reqs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	results := make([]any, 0, len(batch.Items))
	for _, item := range batch.Items {
		if item.Err != nil {
			results = append(results, batchItemError{EventID: item.EventID, Error: item.Err.Error()})
			continue
		}
		results = append(results, item.Result)
	}

	writeJSON(w, http.StatusOK, batchResponse{
		Results:    results,
		Total:      batch.Total,
		Successful: batch.Successful,
	})
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/predictlink/verdict/internal/domain/fraud"
)

// FraudHandler handles standalone fraud assessment requests.
type FraudHandler struct {
	deps Dependencies
}

// NewFraudHandler creates a new fraud handler.
func NewFraudHandler(deps Dependencies) *FraudHandler {
	return &FraudHandler{deps: deps}
}

// HandleFraud handles POST /api/v1/fraud requests. The body is a proposal;
// absent fields fall back to the assessor's neutral defaults.
func (h *FraudHandler) HandleFraud(w http.ResponseWriter, r *http.Request) {
	const op = "api.fraud"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var proposal fraud.Proposal
	if err := json.NewDecoder(r.Body).Decode(&proposal); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	writeJSON(w, http.StatusOK, h.deps.AssessFraud(r.Context(), proposal))
}

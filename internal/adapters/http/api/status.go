// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// StatusHandler reports model artifact state.
type StatusHandler struct {
	deps Dependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// statusResponse mirrors the wire schema for GET /api/v1/models/status.
type statusResponse struct {
	XGBModel       string `json:"xgb_model"`
	NNModel        string `json:"nn_model"`
	FraudDetection string `json:"fraud_detection"`
	Device         string `json:"device"`
	Status         string `json:"status"`
}

// HandleStatus handles GET /api/v1/models/status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	status := h.deps.ModelStatus()
	writeJSON(w, http.StatusOK, statusResponse{
		XGBModel:       loadState(status.XGBLoaded),
		NNModel:        loadState(status.NNLoaded),
		FraudDetection: "active",
		Device:         status.Device,
		Status:         "healthy",
	})
}

func loadState(loaded bool) string {
	if loaded {
		return "loaded"
	}
	return "not_loaded"
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// HealthHandler handles liveness requests.
type HealthHandler struct {
	models ModelProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(models ModelProvider) *HealthHandler {
	return &HealthHandler{models: models}
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelFormat string `json:"model_format,omitempty"`
}

// HandleHealth handles GET /healthz requests. The process is live as long
// as it answers; a missing model is reported but does not fail the probe.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	resp := healthResponse{Status: "ok"}
	if info, ok := h.models.ModelInfo(); ok {
		resp.ModelLoaded = true
		resp.ModelFormat = string(info.Format)
	}
	writeJSON(w, http.StatusOK, resp)
}

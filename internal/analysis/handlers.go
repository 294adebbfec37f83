package analysis

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Handler handles HTTP requests for image analysis.
type Handler struct {
	service *Service
}

// NewHandler creates a new analysis handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleAnalyzeImage handles POST /v1/analyze-image
func (h *Handler) HandleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	resp, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		if strings.HasPrefix(err.Error(), "validation failed: ") {
			writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), "validation failed: "))
			return
		}
		writeError(w, http.StatusBadGateway, "analysis_unavailable", "Image analysis is not available right now")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

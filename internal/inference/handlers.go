package inference

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Handler handles HTTP requests for inference.
type Handler struct {
	service *Service
}

// NewHandler creates a new inference handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleInfer handles POST /v1/infer
func (h *Handler) HandleInfer(w http.ResponseWriter, r *http.Request) {
	var req FactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	resp, err := h.service.Infer(r.Context(), req)
	if err != nil {
		if strings.HasPrefix(err.Error(), "invalid facts: ") {
			writeError(w, http.StatusBadRequest, "invalid_facts", strings.TrimPrefix(err.Error(), "invalid facts: "))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Inference failed")
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

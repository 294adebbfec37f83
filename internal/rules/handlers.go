package rules

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nutriexpert/api/internal/engine"
	"github.com/nutriexpert/api/internal/storage"
	"github.com/nutriexpert/api/internal/userctx"
)

// Handler handles HTTP requests for rule authoring.
type Handler struct {
	service *Service
}

// NewHandler creates a new rules handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList handles GET /v1/rules. Listing is open to any caller so
// patients can see what the advisor reasons with.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list rules")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ListRulesResponse{Items: items, Total: len(items)})
}

// HandleGet handles GET /v1/rules/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get rule")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(item)
}

// HandleCreate handles POST /v1/rules (nutritionist only)
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !requireNutritionist(w, r) {
		return
	}

	var rule engine.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	dto, warnings, err := h.service.Create(r.Context(), rule)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "duplicate_id", "A rule with this id already exists")
			return
		}
		if strings.HasPrefix(err.Error(), "validation failed: ") {
			writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), "validation failed: "))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create rule")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SaveRuleResponse{Rule: dto, Warnings: warnings})
}

// HandleUpdate handles PUT /v1/rules/{id} (nutritionist only)
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireNutritionist(w, r) {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	var rule engine.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	if rule.ID != "" && rule.ID != id {
		writeError(w, http.StatusBadRequest, "id_mismatch", "Rule id in body does not match URL")
		return
	}
	rule.ID = id

	dto, warnings, err := h.service.Update(r.Context(), rule)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Rule not found")
			return
		}
		if strings.HasPrefix(err.Error(), "validation failed: ") {
			writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), "validation failed: "))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update rule")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SaveRuleResponse{Rule: dto, Warnings: warnings})
}

// HandleDelete handles DELETE /v1/rules/{id} (nutritionist only)
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireNutritionist(w, r) {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireNutritionist rejects callers without the nutritionist role.
func requireNutritionist(w http.ResponseWriter, r *http.Request) bool {
	role, ok := userctx.GetRole(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return false
	}
	if role != "nutritionist" {
		writeError(w, http.StatusForbidden, "forbidden", "Only nutritionists can modify rules")
		return false
	}
	return true
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

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nutriexpert/api/internal/extract"
	"github.com/nutriexpert/api/internal/vision"
)

// mockProvider returns a fixed narrative or error.
type mockProvider struct {
	narrative string
	err       error
}

func (m *mockProvider) Analyze(ctx context.Context, req vision.AnalyzeRequest) (string, error) {
	return m.narrative, m.err
}

func newTestHandler(p vision.Provider) *Handler {
	return NewHandler(NewService(p, extract.NewParser(extract.DefaultConfig()), 10))
}

func TestHandleAnalyzeImage(t *testing.T) {
	narrative := `TOTALES:
Calorías: 545 kcal
Proteínas: 53.1g
Carbohidratos: 59.5g
Grasas: 7.2g

DESGLOSE POR ALIMENTO:
1. Pechuga de pollo a la plancha
   - Porción: 150g
   - Calorías: 248 kcal
`
	handler := newTestHandler(&mockProvider{narrative: narrative})

	body := `{"image_base64": "aGVsbG8="}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze-image", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleAnalyzeImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AnalyzeImageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Analysis != strings.TrimSpace(narrative) && resp.Analysis != narrative {
		t.Errorf("narrative not passed through")
	}
	if resp.Nutrition.TotalCalories != 545 {
		t.Errorf("expected total calories 545, got %v", resp.Nutrition.TotalCalories)
	}
	if len(resp.Nutrition.Foods) != 1 || resp.Nutrition.Foods[0].ServingG != 150 {
		t.Errorf("expected one food with 150g serving, got %+v", resp.Nutrition.Foods)
	}
}

func TestHandleAnalyzeImageMissingImage(t *testing.T) {
	handler := newTestHandler(&mockProvider{narrative: "x"})

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze-image", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.HandleAnalyzeImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleAnalyzeImageProviderError(t *testing.T) {
	handler := newTestHandler(&mockProvider{err: errors.New("upstream down")})

	body := `{"image_base64": "aGVsbG8="}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze-image", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleAnalyzeImage(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestHandleAnalyzeImageUnstructuredNarrative(t *testing.T) {
	// provider succeeded but returned free prose: extraction degrades to
	// a zero-filled record rather than failing the request
	handler := newTestHandler(&mockProvider{narrative: "Se ve un plato de comida muy apetitoso."})

	body := `{"image_base64": "aGVsbG8="}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze-image", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleAnalyzeImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp AnalyzeImageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Nutrition.TotalCalories != 0 || len(resp.Nutrition.Foods) != 0 {
		t.Errorf("expected zero-filled record, got %+v", resp.Nutrition)
	}
}

func TestHandleAnalyzeImageTooLarge(t *testing.T) {
	// 1 MB cap, ~2 MB of base64 payload
	service := NewService(&mockProvider{narrative: "x"}, extract.NewParser(extract.DefaultConfig()), 1)
	handler := NewHandler(service)

	payload := strings.Repeat("A", 2*1024*1024)
	body := `{"image_base64": "` + payload + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze-image", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleAnalyzeImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "exceeds 1 MB") {
		t.Errorf("expected size limit message, got %s", rec.Body.String())
	}
}

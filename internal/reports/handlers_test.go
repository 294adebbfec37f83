package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nutriexpert/api/internal/engine"
	"github.com/nutriexpert/api/internal/inference"
	"github.com/nutriexpert/api/internal/storage"
	"github.com/nutriexpert/api/internal/userctx"
)

type mockReportsStorage struct {
	createFn func(ctx context.Context, report *storage.ReportMeta) error
	getFn    func(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error)
	listFn   func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockReportsStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	return m.createFn(ctx, report)
}

func (m *mockReportsStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	return m.getFn(ctx, id)
}

func (m *mockReportsStorage) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	return m.listFn(ctx, userID, limit, offset)
}

func (m *mockReportsStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

type mockInferrer struct {
	inferFn func(ctx context.Context, req inference.FactsRequest) (inference.InferResponse, error)
}

func (m *mockInferrer) Infer(ctx context.Context, req inference.FactsRequest) (inference.InferResponse, error) {
	return m.inferFn(ctx, req)
}

func overweightResult() inference.InferResponse {
	kcal := 1978
	return inference.InferResponse{
		BMI:       27.7,
		Diagnosis: []string{"Sobrepeso"},
		Plan: engine.Plan{
			KcalTarget:   &kcal,
			MacroSplit:   &engine.MacroSplit{CarbPct: 0.45, ProtPct: 0.25, FatPct: 0.30},
			Restrictions: []string{"bebidas_azucaradas"},
			Advice:       []string{},
		},
		FiredRules:   []engine.FiredRule{{ID: "R2", Name: "Sobrepeso", Explain: "IMC 25–29.9"}},
		SkippedRules: []engine.SkippedRule{},
	}
}

func okInferrer() *mockInferrer {
	return &mockInferrer{
		inferFn: func(ctx context.Context, req inference.FactsRequest) (inference.InferResponse, error) {
			return overweightResult(), nil
		},
	}
}

// newLocalService builds a service in local mode (nil blob store).
func newLocalService(st storage.ReportsStorage, inf Inferrer) *Service {
	return NewService(st, inf, nil, 900, "", false, 20, 100)
}

func asUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(userctx.WithUserID(req.Context(), userID.String()))
}

func TestHandleCreatePDFReport(t *testing.T) {
	userID := uuid.New()
	var stored *storage.ReportMeta
	st := &mockReportsStorage{
		createFn: func(ctx context.Context, report *storage.ReportMeta) error {
			stored = report
			return nil
		},
		getFn: func(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
			if stored != nil && stored.ID == id {
				return stored, nil
			}
			return nil, storage.ErrNotFound
		},
	}
	h := NewHandlers(newLocalService(st, okInferrer()))

	body := bytes.NewBufferString(`{"title":"Plan mensual","format":"pdf","facts":{"age":35,"sex":"M","height_cm":170,"weight_kg":80,"activity":"light","conditions":[]}}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/reports", body), userID)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stored == nil {
		t.Fatal("expected report metadata to be stored")
	}
	if stored.UserID != userID {
		t.Errorf("expected report owned by caller, got %s", stored.UserID)
	}
	if !bytes.HasPrefix(stored.Data, []byte("%PDF")) {
		t.Error("expected stored bytes to be a PDF document")
	}
	if stored.SizeBytes != int64(len(stored.Data)) {
		t.Errorf("size mismatch: %d != %d", stored.SizeBytes, len(stored.Data))
	}

	var dto ReportDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if dto.Title != "Plan mensual" || dto.Format != FormatPDF || dto.Status != StatusReady {
		t.Errorf("unexpected dto: %+v", dto)
	}
	wantSuffix := fmt.Sprintf("/v1/reports/%s/download", dto.ID)
	if !strings.HasSuffix(dto.DownloadURL, wantSuffix) {
		t.Errorf("expected local download URL ending in %s, got %s", wantSuffix, dto.DownloadURL)
	}
}

func TestHandleCreateCSVReport(t *testing.T) {
	userID := uuid.New()
	var stored *storage.ReportMeta
	st := &mockReportsStorage{
		createFn: func(ctx context.Context, report *storage.ReportMeta) error {
			stored = report
			return nil
		},
		getFn: func(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
			return stored, nil
		},
	}
	h := NewHandlers(newLocalService(st, okInferrer()))

	body := bytes.NewBufferString(`{"format":"csv","facts":{"age":35,"sex":"M","height_cm":170,"weight_kg":80,"activity":"light","conditions":[]}}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/reports", body), userID)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	csvText := string(stored.Data)
	if !strings.HasPrefix(csvText, "section,field,value") {
		t.Errorf("expected csv header, got: %q", csvText[:min(len(csvText), 40)])
	}
	if !strings.Contains(csvText, "plan,kcal_target,1978") {
		t.Errorf("expected kcal target row, got:\n%s", csvText)
	}
	if !strings.Contains(csvText, "plan,restrictions,bebidas_azucaradas") {
		t.Errorf("expected restrictions row, got:\n%s", csvText)
	}
	if !strings.Contains(csvText, "fired_rule,R2") {
		t.Errorf("expected fired rule row, got:\n%s", csvText)
	}
	if stored.Title != "Plan nutricional" {
		t.Errorf("expected default title, got %q", stored.Title)
	}
}

func TestHandleCreateRejectsUnknownFormat(t *testing.T) {
	h := NewHandlers(newLocalService(&mockReportsStorage{}, okInferrer()))

	body := bytes.NewBufferString(`{"format":"xlsx","facts":{"age":35,"sex":"M","height_cm":170,"weight_kg":80,"activity":"light"}}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/reports", body), uuid.New())
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCreateRejectsInvalidFacts(t *testing.T) {
	inf := &mockInferrer{
		inferFn: func(ctx context.Context, req inference.FactsRequest) (inference.InferResponse, error) {
			return inference.InferResponse{}, fmt.Errorf("invalid facts: sex must be F or M")
		},
	}
	h := NewHandlers(newLocalService(&mockReportsStorage{}, inf))

	body := bytes.NewBufferString(`{"format":"pdf","facts":{"age":35,"sex":"X","height_cm":170,"weight_kg":80,"activity":"light"}}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/reports", body), uuid.New())
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "invalid_facts") {
		t.Errorf("expected invalid_facts code, got: %s", rec.Body.String())
	}
}

func TestHandleCreateRequiresAuth(t *testing.T) {
	h := NewHandlers(newLocalService(&mockReportsStorage{}, okInferrer()))

	body := bytes.NewBufferString(`{"format":"pdf"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", body)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleListReturnsOwnReports(t *testing.T) {
	userID := uuid.New()
	metas := []storage.ReportMeta{
		{ID: uuid.New(), UserID: userID, Format: FormatPDF, Title: "Plan A", Status: StatusReady, SizeBytes: 100, CreatedAt: time.Now()},
		{ID: uuid.New(), UserID: userID, Format: FormatCSV, Title: "Plan B", Status: StatusReady, SizeBytes: 42, CreatedAt: time.Now().Add(-time.Hour)},
	}
	st := &mockReportsStorage{
		listFn: func(ctx context.Context, gotUser uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
			if gotUser != userID {
				t.Errorf("expected list scoped to caller, got %s", gotUser)
			}
			if limit != 20 {
				t.Errorf("expected default limit 20, got %d", limit)
			}
			return metas, nil
		},
		getFn: func(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
			for i := range metas {
				if metas[i].ID == id {
					return &metas[i], nil
				}
			}
			return nil, storage.ErrNotFound
		},
	}
	h := NewHandlers(newLocalService(st, okInferrer()))

	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/reports", nil), userID)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ReportsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(resp.Reports))
	}
	if resp.Reports[0].Title != "Plan A" || resp.Reports[1].Title != "Plan B" {
		t.Errorf("unexpected order: %+v", resp.Reports)
	}
}

func TestHandleGetHidesForeignReport(t *testing.T) {
	owner := uuid.New()
	reportID := uuid.New()
	st := &mockReportsStorage{
		getFn: func(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
			return &storage.ReportMeta{ID: reportID, UserID: owner, Format: FormatPDF, Status: StatusReady}, nil
		},
	}
	h := NewHandlers(newLocalService(st, okInferrer()))

	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/reports/"+reportID.String(), nil), uuid.New())
	req.SetPathValue("id", reportID.String())
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign report, got %d", rec.Code)
	}
}

func TestHandleDownloadServesLocalBytes(t *testing.T) {
	userID := uuid.New()
	reportID := uuid.New()
	meta := &storage.ReportMeta{
		ID:        reportID,
		UserID:    userID,
		Format:    FormatCSV,
		Title:     "Plan nutricional",
		Status:    StatusReady,
		Data:      []byte("section,field,value\n"),
		SizeBytes: 20,
	}
	st := &mockReportsStorage{
		getFn: func(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
			if id != reportID {
				return nil, storage.ErrNotFound
			}
			return meta, nil
		},
	}
	h := NewHandlers(newLocalService(st, okInferrer()))

	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/reports/"+reportID.String()+"/download", nil), userID)
	req.SetPathValue("id", reportID.String())
	rec := httptest.NewRecorder()
	h.HandleDownload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), reportID.String()) {
		t.Errorf("expected attachment filename with report id, got %s", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "section,field,value\n" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestHandleDelete(t *testing.T) {
	userID := uuid.New()
	reportID := uuid.New()
	var deleted uuid.UUID
	st := &mockReportsStorage{
		getFn: func(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
			if id != reportID {
				return nil, storage.ErrNotFound
			}
			return &storage.ReportMeta{ID: reportID, UserID: userID, Format: FormatPDF, Status: StatusReady}, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	h := NewHandlers(newLocalService(st, okInferrer()))

	req := asUser(httptest.NewRequest(http.MethodDelete, "/v1/reports/"+reportID.String(), nil), userID)
	req.SetPathValue("id", reportID.String())
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if deleted != reportID {
		t.Errorf("expected delete of %s, got %s", reportID, deleted)
	}
}

func TestHandleDeleteUnknownReport(t *testing.T) {
	st := &mockReportsStorage{
		getFn: func(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
			return nil, storage.ErrNotFound
		},
	}
	h := NewHandlers(newLocalService(st, okInferrer()))

	missing := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodDelete, "/v1/reports/"+missing.String(), nil), uuid.New())
	req.SetPathValue("id", missing.String())
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

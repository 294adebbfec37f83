package rules

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nutriexpert/api/internal/storage"
	"github.com/nutriexpert/api/internal/userctx"
)

// mockRulesStorage implements storage.RulesStorage with optional func fields.
type mockRulesStorage struct {
	listFunc   func(ctx context.Context) ([]storage.StoredRule, error)
	getFunc    func(ctx context.Context, id string) (*storage.StoredRule, error)
	createFunc func(ctx context.Context, rule *storage.StoredRule) error
	updateFunc func(ctx context.Context, rule *storage.StoredRule) error
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockRulesStorage) ListRules(ctx context.Context) ([]storage.StoredRule, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []storage.StoredRule{}, nil
}

func (m *mockRulesStorage) GetRule(ctx context.Context, id string) (*storage.StoredRule, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, storage.ErrNotFound
}

func (m *mockRulesStorage) CreateRule(ctx context.Context, rule *storage.StoredRule) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rule)
	}
	return nil
}

func (m *mockRulesStorage) UpdateRule(ctx context.Context, rule *storage.StoredRule) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, rule)
	}
	return nil
}

func (m *mockRulesStorage) DeleteRule(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func asNutritionist(r *http.Request) *http.Request {
	ctx := userctx.WithUserID(r.Context(), "u-1")
	ctx = userctx.WithRole(ctx, "nutritionist")
	return r.WithContext(ctx)
}

func asPatient(r *http.Request) *http.Request {
	ctx := userctx.WithUserID(r.Context(), "u-2")
	ctx = userctx.WithRole(ctx, "patient")
	return r.WithContext(ctx)
}

func TestHandleListReturnsSeededRules(t *testing.T) {
	store := &mockRulesStorage{
		listFunc: func(ctx context.Context) ([]storage.StoredRule, error) {
			return storage.BaseRules(), nil
		},
	}
	handler := NewHandler(NewService(store))

	req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
	rec := httptest.NewRecorder()
	handler.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ListRulesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Fatalf("expected 3 rules, got %d", resp.Total)
	}
	if resp.Items[0].ID != "R1" || resp.Items[0].Priority != 20 {
		t.Errorf("unexpected first rule: %+v", resp.Items[0])
	}
	if resp.Items[0].Then.Diet.KcalTarget == nil || resp.Items[0].Then.Diet.KcalTarget.SurplusPct != 0.15 {
		t.Errorf("seed rule R1 kcal_target not decoded: %+v", resp.Items[0].Then.Diet.KcalTarget)
	}
}

func TestHandleCreateStoresRule(t *testing.T) {
	var created *storage.StoredRule
	store := &mockRulesStorage{
		createFunc: func(ctx context.Context, rule *storage.StoredRule) error {
			created = rule
			return nil
		},
	}
	handler := NewHandler(NewService(store))

	body := `{
		"id": "RD",
		"name": "Diabetes",
		"priority": 15,
		"when": [{"fact": "conditions", "op": "contains", "value": "diabetes"}],
		"then": {
			"diagnosis": ["Control glucémico"],
			"diet": {"restrictions": ["azúcares_simples"], "advice": ["Carbohidratos complejos"]},
			"explain": "Paciente con diabetes"
		}
	}`
	req := asNutritionist(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if created == nil || created.ID != "RD" || created.Priority != 15 {
		t.Fatalf("rule not stored as expected: %+v", created)
	}

	var resp SaveRuleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", resp.Warnings)
	}
}

func TestHandleCreateDuplicateID(t *testing.T) {
	store := &mockRulesStorage{
		createFunc: func(ctx context.Context, rule *storage.StoredRule) error {
			return storage.ErrDuplicate
		},
	}
	handler := NewHandler(NewService(store))

	body := `{"id": "R1", "name": "Bajo peso", "priority": 20}`
	req := asNutritionist(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandleCreateRejectsPatients(t *testing.T) {
	handler := NewHandler(NewService(&mockRulesStorage{}))

	body := `{"id": "RX", "name": "X", "priority": 1}`
	req := asPatient(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	// no role in context at all
	req = httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body))
	rec = httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleCreateSurfacesMacroSplitWarning(t *testing.T) {
	handler := NewHandler(NewService(&mockRulesStorage{}))

	body := `{
		"id": "RM",
		"name": "Macros raros",
		"priority": 1,
		"then": {"diet": {"macro_split": {"carb_pct": 0.5, "prot_pct": 0.4, "fat_pct": 0.3}}}
	}`
	req := asNutritionist(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 (warning is non-blocking), got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SaveRuleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "macro_split") {
		t.Errorf("expected one macro_split warning, got %v", resp.Warnings)
	}
}

func TestHandleCreateWarnsOnMalformedCondition(t *testing.T) {
	handler := NewHandler(NewService(&mockRulesStorage{}))

	// "contains" on bmi is a shape mismatch: stored, but flagged
	body := `{
		"id": "RB",
		"name": "Condición rota",
		"priority": 1,
		"when": [{"fact": "bmi", "op": "contains", "value": "25"}]
	}`
	req := asNutritionist(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SaveRuleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "exclude this rule") {
		t.Errorf("expected condition warning, got %v", resp.Warnings)
	}
}

func TestHandleCreateRejectsIncompleteCondition(t *testing.T) {
	// A missing or null fact/op/value is not a shape mismatch: the rule
	// is rejected outright instead of being stored with a warning.
	cases := []struct {
		name string
		when string
	}{
		{"missing fact", `[{"op": ">=", "value": 25}]`},
		{"missing op", `[{"fact": "bmi", "value": 25}]`},
		{"missing value", `[{"fact": "bmi", "op": ">="}]`},
		{"null value", `[{"fact": "bmi", "op": ">=", "value": null}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			created := false
			st := &mockRulesStorage{
				createFunc: func(ctx context.Context, rule *storage.StoredRule) error {
					created = true
					return nil
				},
			}
			handler := NewHandler(NewService(st))

			body := `{"id": "RX", "name": "Incompleta", "priority": 1, "when": ` + tc.when + `}`
			req := asNutritionist(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)))
			rec := httptest.NewRecorder()
			handler.HandleCreate(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if created {
				t.Error("incomplete rule must not reach storage")
			}
		})
	}
}

func TestHandleCreateMissingID(t *testing.T) {
	handler := NewHandler(NewService(&mockRulesStorage{}))

	body := `{"name": "Sin id", "priority": 1}`
	req := asNutritionist(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleUpdateIDMismatch(t *testing.T) {
	handler := NewHandler(NewService(&mockRulesStorage{}))

	body := `{"id": "R2", "name": "Sobrepeso", "priority": 10}`
	req := asNutritionist(httptest.NewRequest(http.MethodPut, "/v1/rules/R1", strings.NewReader(body)))
	req.SetPathValue("id", "R1")
	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on id mismatch, got %d", rec.Code)
	}
}

func TestHandleUpdateUnknownRule(t *testing.T) {
	store := &mockRulesStorage{
		updateFunc: func(ctx context.Context, rule *storage.StoredRule) error {
			return storage.ErrNotFound
		},
	}
	handler := NewHandler(NewService(store))

	body := `{"id": "RZ", "name": "No existe", "priority": 1}`
	req := asNutritionist(httptest.NewRequest(http.MethodPut, "/v1/rules/RZ", strings.NewReader(body)))
	req.SetPathValue("id", "RZ")
	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleDelete(t *testing.T) {
	deleted := ""
	store := &mockRulesStorage{
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	handler := NewHandler(NewService(store))

	req := asNutritionist(httptest.NewRequest(http.MethodDelete, "/v1/rules/R3", nil))
	req.SetPathValue("id", "R3")
	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if deleted != "R3" {
		t.Errorf("expected R3 deleted, got %q", deleted)
	}
}

func TestHandleDeleteUnknownRule(t *testing.T) {
	store := &mockRulesStorage{
		deleteFunc: func(ctx context.Context, id string) error {
			return storage.ErrNotFound
		},
	}
	handler := NewHandler(NewService(store))

	req := asNutritionist(httptest.NewRequest(http.MethodDelete, "/v1/rules/RZ", nil))
	req.SetPathValue("id", "RZ")
	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/splitbook/splitbook/internal/config"
	"github.com/splitbook/splitbook/internal/service"
	"github.com/splitbook/splitbook/internal/storage/sqlite"
)

// setupTestServer boots the full router over a temp SQLite database.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitbook-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Metrics.Enabled = false

	templates := service.NewTemplateService(store)
	allocations := service.NewAllocationService(store)
	instances := service.NewInstanceService(store, allocations)

	router := NewRouter(cfg,
		NewTemplateHandler(templates),
		NewInstanceHandler(instances),
		NewAllocationHandler(allocations),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// doJSON issues a request with a JSON body and decodes the envelope.
func doJSON(t *testing.T, method, url string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, env
}

// dataID extracts data.id from an envelope.
func dataID(t *testing.T, env envelope) string {
	t.Helper()
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", env.Data)
	}
	id, ok := data["id"].(string)
	if !ok || id == "" {
		t.Fatalf("expected data.id, got %+v", data)
	}
	return id
}

func TestAPI_TemplateLifecycle(t *testing.T) {
	server := setupTestServer(t)

	status, env := doJSON(t, http.MethodPost, server.URL+"/api/templates", map[string]any{
		"user_id": "user-1",
		"name":    "Apartment",
	})
	if status != http.StatusCreated || !env.Success {
		t.Fatalf("expected 201 success, got %d %+v", status, env)
	}
	templateID := dataID(t, env)

	status, env = doJSON(t, http.MethodGet, server.URL+"/api/templates/"+templateID, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if name := env.Data.(map[string]any)["name"]; name != "Apartment" {
		t.Errorf("expected name Apartment, got %v", name)
	}

	status, _ = doJSON(t, http.MethodGet, server.URL+"/api/templates/no-such-id", nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown template, got %d", status)
	}

	status, _ = doJSON(t, http.MethodDelete, server.URL+"/api/templates/"+templateID, nil)
	if status != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", status)
	}
}

func TestAPI_MissingRequiredFieldIsBadRequest(t *testing.T) {
	server := setupTestServer(t)

	status, env := doJSON(t, http.MethodPost, server.URL+"/api/templates", map[string]any{
		"description": "no name",
	})
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if env.Success {
		t.Error("expected success=false")
	}
}

func TestAPI_ValidateSplitRule(t *testing.T) {
	server := setupTestServer(t)

	_, env := doJSON(t, http.MethodPost, server.URL+"/api/templates", map[string]any{"name": "Flat"})
	templateID := dataID(t, env)

	_, env = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/templates/%s/participants", server.URL, templateID),
		map[string]any{"name": "Alice", "display_order": 1})
	aliceID := dataID(t, env)

	_, env = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/templates/%s/split-rules", server.URL, templateID),
		map[string]any{"name": "partial"})
	ruleID := dataID(t, env)

	_, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/split-rules/%s/allocations", server.URL, ruleID),
		map[string]any{"participant_id": aliceID, "percent": "70"})

	status, _ := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/split-rules/%s/validate", server.URL, ruleID), nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for incomplete rule, got %d", status)
	}

	_, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/split-rules/%s/allocations", server.URL, ruleID),
		map[string]any{"participant_id": aliceID, "percent": "30"})

	status, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/split-rules/%s/validate", server.URL, ruleID), nil)
	if status != http.StatusOK {
		t.Errorf("expected 200 for complete rule, got %d", status)
	}
}

func TestAPI_FieldValueFlow(t *testing.T) {
	server := setupTestServer(t)

	_, env := doJSON(t, http.MethodPost, server.URL+"/api/templates", map[string]any{"name": "Flat"})
	templateID := dataID(t, env)

	_, env = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/templates/%s/participants", server.URL, templateID),
		map[string]any{"name": "Alice", "display_order": 1})
	aliceID := dataID(t, env)
	_, env = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/templates/%s/participants", server.URL, templateID),
		map[string]any{"name": "Bob", "display_order": 2})
	bobID := dataID(t, env)

	_, env = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/templates/%s/split-rules", server.URL, templateID),
		map[string]any{"name": "even"})
	ruleID := dataID(t, env)
	for _, pid := range []string{aliceID, bobID} {
		_, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/split-rules/%s/allocations", server.URL, ruleID),
			map[string]any{"participant_id": pid, "percent": "50"})
	}

	_, env = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/templates/%s/fields", server.URL, templateID),
		map[string]any{"label": "Rent", "field_type": "AMOUNT", "default_split_rule_id": ruleID, "display_order": 1})
	fieldID := dataID(t, env)

	_, env = doJSON(t, http.MethodPost, server.URL+"/api/instances",
		map[string]any{"template_id": templateID, "name": "March"})
	instanceID := dataID(t, env)

	status, env := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/instances/%s/field-values", server.URL, instanceID),
		map[string]any{"field_id": fieldID, "amount": "100.00"})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %+v", status, env)
	}
	fieldValueID := dataID(t, env)

	status, env = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/calculations?field_value_id=%s", server.URL, fieldValueID), nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	shares, ok := env.Data.([]any)
	if !ok || len(shares) != 2 {
		t.Fatalf("expected 2 shares, got %+v", env.Data)
	}

	status, env = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/instances/%s/participants/%s/total", server.URL, instanceID, aliceID), nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if total := env.Data.(map[string]any)["total"]; total != "50.00" {
		t.Errorf("expected total 50.00, got %v", total)
	}

	// A participant with no shares still renders at fixed scale.
	_, env = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/templates/%s/participants", server.URL, templateID),
		map[string]any{"name": "Carol", "display_order": 3})
	carolID := dataID(t, env)
	status, env = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/instances/%s/participants/%s/total", server.URL, instanceID, carolID), nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if total := env.Data.(map[string]any)["total"]; total != "0.00" {
		t.Errorf("expected total 0.00, got %v", total)
	}
}

func TestAPI_MissingSplitRuleIsUnprocessable(t *testing.T) {
	server := setupTestServer(t)

	_, env := doJSON(t, http.MethodPost, server.URL+"/api/templates", map[string]any{"name": "Flat"})
	templateID := dataID(t, env)
	_, env = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/templates/%s/fields", server.URL, templateID),
		map[string]any{"label": "Misc", "field_type": "AMOUNT"})
	fieldID := dataID(t, env)
	_, env = doJSON(t, http.MethodPost, server.URL+"/api/instances",
		map[string]any{"template_id": templateID, "name": "March"})
	instanceID := dataID(t, env)

	status, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/instances/%s/field-values", server.URL, instanceID),
		map[string]any{"field_id": fieldID, "amount": "10.00"})
	if status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 with no rule available, got %d", status)
	}

	// The entry was still persisted.
	status, env = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/instances/%s/field-values", server.URL, instanceID), nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if values, ok := env.Data.([]any); !ok || len(values) != 1 {
		t.Errorf("expected the rejected entry persisted, got %+v", env.Data)
	}
}

func TestAPI_Healthz(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

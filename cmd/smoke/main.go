package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase    string
	token      string
	client     = &http.Client{Timeout: 30 * time.Second}
	createdIDs = make(map[string]string) // track created resources for cleanup
)

func main() {
	fmt.Println("=== NutriExpert E2E Smoke Test ===")
	fmt.Println()

	// Load config from env
	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	// Run smoke tests
	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Login (seed nutritionist)", testLogin},
		{"Auth Me", testMe},
		{"List Rules", testListRules},
		{"Infer (overweight case)", testInfer},
		{"Create Rule", testCreateRule},
		{"Update Rule", testUpdateRule},
		{"Analyze Image (mock)", testAnalyzeImage},
		{"Create Report (CSV)", testCreateReport},
		{"List Reports", testListReports},
		{"Download Report", testDownloadReport},
		{"Delete Report", testDeleteReport},
		{"Delete Rule", testDeleteRule},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	resp, err := doJSON("GET", "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

// testLogin signs in as the seeded nutritionist unless SMOKE_TOKEN is set.
func testLogin() error {
	if token != "" {
		return nil
	}

	email := getEnv("SMOKE_EMAIL", "pro@nutri.com")
	password := getEnv("SMOKE_PASSWORD", "nutri123")

	resp, err := doJSON("POST", "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("empty access token")
	}

	token = result.AccessToken
	return nil
}

func testMe() error {
	resp, err := doJSON("GET", "/v1/auth/me", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Role != "nutritionist" {
		return fmt.Errorf("expected nutritionist role, got %q (rule mutations will fail)", result.Role)
	}
	return nil
}

func testListRules() error {
	resp, err := doJSON("GET", "/v1/rules", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Total < 3 {
		return fmt.Errorf("expected at least the 3 seed rules, got %d", result.Total)
	}
	return nil
}

func testInfer() error {
	resp, err := doJSON("POST", "/v1/infer", map[string]interface{}{
		"age":        35,
		"sex":        "M",
		"height_cm":  170,
		"weight_kg":  80,
		"activity":   "light",
		"conditions": []string{},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		BMI        float64 `json:"bmi"`
		FiredRules []struct {
			ID string `json:"id"`
		} `json:"fired_rules"`
		Plan struct {
			KcalTarget *int `json:"kcal_target"`
		} `json:"plan"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	if result.BMI != 27.7 {
		return fmt.Errorf("expected BMI 27.7, got %v", result.BMI)
	}
	if len(result.FiredRules) == 0 || result.FiredRules[0].ID != "R2" {
		return fmt.Errorf("expected seed rule R2 to fire, got %+v", result.FiredRules)
	}
	if result.Plan.KcalTarget == nil {
		return fmt.Errorf("expected a kcal target from R2")
	}
	return nil
}

func testCreateRule() error {
	ruleID := fmt.Sprintf("SMOKE-%d", time.Now().Unix())
	resp, err := doJSON("POST", "/v1/rules", map[string]interface{}{
		"id":       ruleID,
		"name":     "Smoke test rule",
		"priority": 1,
		"when": []map[string]interface{}{
			{"fact": "bmi", "op": ">=", "value": 99},
		},
		"then": map[string]interface{}{
			"advice": []string{"smoke"},
		},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusCreated); err != nil {
		return err
	}

	createdIDs["rule"] = ruleID
	return nil
}

func testUpdateRule() error {
	ruleID := createdIDs["rule"]
	if ruleID == "" {
		return fmt.Errorf("no rule ID to update")
	}

	resp, err := doJSON("PUT", "/v1/rules/"+ruleID, map[string]interface{}{
		"id":       ruleID,
		"name":     "Smoke test rule (renamed)",
		"priority": 2,
		"when": []map[string]interface{}{
			{"fact": "bmi", "op": ">=", "value": 99},
		},
		"then": map[string]interface{}{
			"advice": []string{"smoke"},
		},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func testAnalyzeImage() error {
	// One transparent PNG pixel; the mock provider ignores the bytes.
	resp, err := doJSON("POST", "/v1/analyze-image", map[string]string{
		"image_base64": "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg==",
		"mime_type":    "image/png",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		Nutrition struct {
			TotalCalories float64 `json:"total_calories"`
		} `json:"nutrition"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Nutrition.TotalCalories <= 0 {
		return fmt.Errorf("expected extracted calories from mock narrative, got %v", result.Nutrition.TotalCalories)
	}
	return nil
}

func testCreateReport() error {
	resp, err := doJSON("POST", "/v1/reports", map[string]interface{}{
		"title":  "Smoke report",
		"format": "csv",
		"facts": map[string]interface{}{
			"age":        35,
			"sex":        "M",
			"height_cm":  170,
			"weight_kg":  80,
			"activity":   "light",
			"conditions": []string{},
		},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusCreated); err != nil {
		return err
	}

	var result struct {
		ID          string `json:"id"`
		DownloadURL string `json:"download_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.ID == "" {
		return fmt.Errorf("empty report id")
	}

	createdIDs["report"] = result.ID
	createdIDs["report_url"] = result.DownloadURL
	return nil
}

func testListReports() error {
	resp, err := doJSON("GET", "/v1/reports", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		Reports []struct {
			ID string `json:"id"`
		} `json:"reports"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	for _, r := range result.Reports {
		if r.ID == createdIDs["report"] {
			return nil
		}
	}
	return fmt.Errorf("created report %s not in list", createdIDs["report"])
}

func testDownloadReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to download")
	}

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/v1/reports/%s/download", apiBase, reportID), nil)
	if err != nil {
		return err
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Local mode serves bytes; S3 mode redirects to a presigned URL.
	if resp.StatusCode == http.StatusOK {
		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return fmt.Errorf("empty report body")
		}
		return nil
	}
	if resp.StatusCode == http.StatusFound {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("unexpected status=%d body=%s", resp.StatusCode, string(body))
}

func testDeleteReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to delete")
	}

	resp, err := doJSON("DELETE", "/v1/reports/"+reportID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusNoContent)
}

func testDeleteRule() error {
	ruleID := createdIDs["rule"]
	if ruleID == "" {
		return fmt.Errorf("no rule ID to delete")
	}

	resp, err := doJSON("DELETE", "/v1/rules/"+ruleID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusNoContent)
}

// Helper functions

func doJSON(method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	return client.Do(req)
}

func expectStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

package inference

import "github.com/nutriexpert/api/internal/engine"

// FactsRequest is the request body for POST /v1/infer: the patient's raw
// inputs. BMI is derived server-side and never accepted from the client.
type FactsRequest struct {
	Age        int      `json:"age"`
	Sex        string   `json:"sex"`
	HeightCM   float64  `json:"height_cm"`
	WeightKG   float64  `json:"weight_kg"`
	Activity   string   `json:"activity"`
	Conditions []string `json:"conditions"`
}

// InferResponse wraps the engine result with the derived BMI and the
// rules excluded for malformed conditions, so callers can audit both
// what fired and what was silently out of play.
type InferResponse struct {
	BMI          float64              `json:"bmi"`
	Diagnosis    []string             `json:"diagnosis"`
	Plan         engine.Plan          `json:"plan"`
	FiredRules   []engine.FiredRule   `json:"fired_rules"`
	SkippedRules []engine.SkippedRule `json:"skipped_rules"`
}

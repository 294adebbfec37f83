package analysis

import "github.com/nutriexpert/api/internal/extract"

// AnalyzeImageRequest is the request body for POST /v1/analyze-image.
type AnalyzeImageRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}

// AnalyzeImageResponse pairs the raw narrative with the structured
// record extracted from it.
type AnalyzeImageResponse struct {
	Analysis  string         `json:"analysis"`
	Nutrition extract.Record `json:"nutrition"`
}

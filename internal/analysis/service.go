package analysis

import (
	"context"
	"fmt"

	"github.com/nutriexpert/api/internal/extract"
	"github.com/nutriexpert/api/internal/vision"
)

// Service runs the image → narrative → structured record pipeline. The
// two halves stay independent: the provider may fail, the parser never
// does.
type Service struct {
	provider   vision.Provider
	parser     *extract.Parser
	maxImageMB int
}

// NewService creates a new analysis service. maxImageMB caps the decoded
// image size; zero or negative disables the check.
func NewService(provider vision.Provider, parser *extract.Parser, maxImageMB int) *Service {
	return &Service{provider: provider, parser: parser, maxImageMB: maxImageMB}
}

// Analyze sends the image to the vision provider and extracts totals
// and per-food values from the returned narrative.
func (s *Service) Analyze(ctx context.Context, req AnalyzeImageRequest) (AnalyzeImageResponse, error) {
	if req.ImageBase64 == "" {
		return AnalyzeImageResponse{}, fmt.Errorf("validation failed: image_base64 is required")
	}
	if s.maxImageMB > 0 {
		// Base64 inflates by 4/3, so the decoded size is len*3/4.
		decodedBytes := len(req.ImageBase64) / 4 * 3
		if decodedBytes > s.maxImageMB*1024*1024 {
			return AnalyzeImageResponse{}, fmt.Errorf("validation failed: image exceeds %d MB limit", s.maxImageMB)
		}
	}

	narrative, err := s.provider.Analyze(ctx, vision.AnalyzeRequest{
		ImageBase64: req.ImageBase64,
		MimeType:    req.MimeType,
		Prompt:      req.Prompt,
	})
	if err != nil {
		return AnalyzeImageResponse{}, fmt.Errorf("image analysis failed: %w", err)
	}

	return AnalyzeImageResponse{
		Analysis:  narrative,
		Nutrition: s.parser.Parse(narrative),
	}, nil
}

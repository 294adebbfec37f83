package vision

import (
	"strings"

	"github.com/nutriexpert/api/internal/config"
)

const (
	ModeMock   = "mock"
	ModeGemini = "gemini"
)

func NewProvider(cfg *config.Config) Provider {
	mode := strings.ToLower(strings.TrimSpace(cfg.VisionMode))
	if mode == "" {
		mode = ModeMock
	}

	switch mode {
	case ModeGemini:
		return NewGeminiProvider(cfg)
	default:
		return NewMockProvider()
	}
}

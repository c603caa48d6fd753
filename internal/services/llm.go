package services

import (
	"context"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// GenerateText produces narrative text for a single prompt. The
	// returned string is raw provider output; callers normalize it.
	GenerateText(ctx context.Context, prompt string) (string, error)
}

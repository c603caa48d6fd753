package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/liushuangls/go-anthropic/v2"
)

const (
	DefaultAnthropicModel     = "claude-3-5-haiku-latest"
	DefaultAnthropicMaxTokens = 2048
)

// AnthropicService implements LLMService for Anthropic Claude
type AnthropicService struct {
	client    *anthropic.Client
	modelName string
	logger    *slog.Logger
}

// NewAnthropicService creates a new Anthropic service instance
func NewAnthropicService(apiKey string, modelName string, logger *slog.Logger) *AnthropicService {
	if modelName == "" {
		modelName = DefaultAnthropicModel
	}
	return &AnthropicService{
		client:    anthropic.NewClient(apiKey),
		modelName: modelName,
		logger:    logger,
	}
}

// InitModel verifies the API is reachable with a minimal request.
func (s *AnthropicService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		s.modelName = modelName
	}
	s.logger.Info("Initializing Anthropic model", "model", s.modelName)

	_, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(s.modelName),
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage("ping"),
		},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("anthropic model check failed: %w", err)
	}
	return nil
}

// GenerateText generates narrative text for a prompt.
func (s *AnthropicService) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(s.modelName),
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
		MaxTokens: DefaultAnthropicMaxTokens,
	})
	if err != nil {
		s.logger.Error("Anthropic request failed", "error", err, "model", s.modelName)
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return "", fmt.Errorf("anthropic response contained no text content")
	}
	return *resp.Content[0].Text, nil
}

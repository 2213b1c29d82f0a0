package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func init() {
	RegisterProvider("openai", func(cfg Config, logger *zap.Logger) (CompletionProvider, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return &OpenAIProvider{
			client: openai.NewClient(cfg.APIKey),
			model:  cfg.Model,
			logger: logger,
		}, nil
	})
}

// OpenAIProvider uses the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Complete sends a single chat completion request in JSON mode.
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		p.logger.Error("OpenAI completion failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", ErrBackendUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

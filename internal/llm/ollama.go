package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

func init() {
	RegisterProvider("ollama", func(cfg Config, logger *zap.Logger) (CompletionProvider, error) {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		return &OllamaProvider{
			baseURL: strings.TrimRight(cfg.OllamaBaseURL, "/"),
			model:   cfg.Model,
			client:  &http.Client{Timeout: timeout},
			logger:  logger,
		}, nil
	})
}

// OllamaProvider talks to a local Ollama server. Local inference can be slow;
// the request timeout comes from configuration and has a multi-minute floor.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

type ollamaRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Complete sends a single generate request.
func (p *OllamaProvider) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  p.model,
		System: systemPrompt,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	url := p.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("Failed to contact Ollama server", zap.String("url", url), zap.Error(err))
		return "", fmt.Errorf("%w: ollama server unreachable: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}

	// Ollama answers 404 when the model is unknown or not pulled yet.
	// Surface the model name so users know what to fix.
	if resp.StatusCode == http.StatusNotFound {
		detail := "model not found"
		var parsed ollamaResponse
		if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Error != "" {
			detail = parsed.Error
		}
		p.logger.Error("Ollama model unavailable",
			zap.String("model", p.model),
			zap.String("detail", detail))
		return "", fmt.Errorf("%w: ollama model %q unavailable: %s", ErrUnknownModel, p.model, detail)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ollama returned status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return parsed.Response, nil
}

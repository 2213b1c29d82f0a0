package stt

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranscriber uses the Whisper transcription API.
type OpenAITranscriber struct {
	client   *openai.Client
	model    string
	language string
	prompt   string
}

// NewOpenAITranscriber creates a Whisper-backed transcriber.
func NewOpenAITranscriber(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai STT requires an API key")
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{
		client:   openai.NewClient(cfg.APIKey),
		model:    model,
		language: cfg.Language,
		prompt:   cfg.Prompt,
	}, nil
}

// Transcribe sends the audio to the transcription endpoint.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(audio),
		Language: t.language,
		Prompt:   t.prompt,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return resp.Text, nil
}

func init() {
	RegisterProvider("openai", func(cfg Config) (Provider, error) {
		inner, err := NewOpenAITranscriber(cfg)
		if err != nil {
			return nil, err
		}
		return WithNormalization(inner, cfg.Replacements), nil
	})
}

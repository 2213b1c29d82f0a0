package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAISynthesizer uses the speech API.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

// NewOpenAISynthesizer creates a speech-API-backed synthesizer.
func NewOpenAISynthesizer(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai TTS requires an API key")
	}
	model := openai.SpeechModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.TTSModel1
	}
	voice := openai.SpeechVoice(cfg.Voice)
	if cfg.Voice == "" {
		voice = openai.VoiceAlloy
	}
	return &OpenAISynthesizer{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
		voice:  voice,
	}, nil
}

// Synthesize renders the text as MP3 audio.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: s.model,
		Input: text,
		Voice: s.voice,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	return audio, nil
}

func init() {
	RegisterProvider("openai", NewOpenAISynthesizer)
}

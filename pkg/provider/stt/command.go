package stt

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// unsafeTokens are shell metacharacters rejected in the configured command.
var unsafeTokens = map[string]bool{
	";": true, "&": true, "|": true, "&&": true, "||": true,
	"`": true, "$": true, ">": true, "<": true,
}

// CommandTranscriber runs a local command line tool (e.g. whisper.cpp) on a
// temporary audio file and reads the transcript from stdout.
type CommandTranscriber struct {
	command  []string
	language string
}

// NewCommandTranscriber parses and validates the configured command.
func NewCommandTranscriber(cfg Config) (Provider, error) {
	fields := strings.Fields(cfg.Model)
	if len(fields) == 0 {
		return nil, fmt.Errorf("command STT requires a command in the model setting")
	}
	for _, token := range fields {
		if unsafeTokens[token] {
			return nil, fmt.Errorf("unsafe token %q in STT command", token)
		}
	}
	return &CommandTranscriber{command: fields, language: cfg.Language}, nil
}

// Transcribe writes the audio to a temp file and runs the tool on it.
func (t *CommandTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	tmp, err := os.CreateTemp("", "stt-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp audio file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp audio file: %w", err)
	}

	args := append(append([]string{}, t.command[1:]...), "--language", t.language, tmp.Name())
	cmd := exec.CommandContext(ctx, t.command[0], args...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("run STT command: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

func init() {
	RegisterProvider("command", func(cfg Config) (Provider, error) {
		inner, err := NewCommandTranscriber(cfg)
		if err != nil {
			return nil, err
		}
		return WithNormalization(inner, cfg.Replacements), nil
	})
}

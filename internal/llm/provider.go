// Package llm talks to the external text-completion backends and runs the
// multi-pass extraction protocol that reconciles deterministic candidates
// with the annotator's output.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrBackendUnavailable marks the completion backend as unreachable.
	// Callers surface it as a retryable service error, never as an invoice.
	ErrBackendUnavailable = errors.New("llm backend unreachable")

	// ErrUnknownModel is returned when the configured model does not exist
	// on the backend. The offending model name is part of the message.
	ErrUnknownModel = errors.New("unknown llm model")

	// ErrInvalidPassPayload is returned when a reconciliation pass still
	// fails schema validation after the repair attempt.
	ErrInvalidPassPayload = errors.New("invalid pass payload")

	// ErrMissingFields is returned when mandatory extraction content is
	// absent after all passes.
	ErrMissingFields = errors.New("missing required fields")
)

// CompletionProvider is the capability interface over any completion backend.
// Implementations must be safe for concurrent use; the reconciliation
// protocol issues its passes in parallel.
type CompletionProvider interface {
	// Complete sends one structured completion request and returns the raw
	// model output. Transport failures must wrap ErrBackendUnavailable.
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Config selects and parameterizes a completion backend.
type Config struct {
	Provider      string
	Model         string
	APIKey        string
	OllamaBaseURL string
	Timeout       time.Duration
}

// Factory builds a provider from configuration.
type Factory func(cfg Config, logger *zap.Logger) (CompletionProvider, error)

var providerFactories = map[string]Factory{}

// RegisterProvider adds a named provider variant to the registry. Called from
// init functions; the name must be unique.
func RegisterProvider(name string, factory Factory) {
	if _, exists := providerFactories[name]; exists {
		panic(fmt.Sprintf("llm provider %q registered twice", name))
	}
	providerFactories[name] = factory
}

// NewProvider instantiates the configured provider variant.
func NewProvider(cfg Config, logger *zap.Logger) (CompletionProvider, error) {
	factory, ok := providerFactories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported llm provider %q (known: %v)", cfg.Provider, knownProviders())
	}
	return factory(cfg, logger)
}

func knownProviders() []string {
	names := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

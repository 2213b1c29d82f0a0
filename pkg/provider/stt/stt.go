// Package stt abstracts speech-to-text backends behind a capability
// interface with named variants selected by configuration.
package stt

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Provider turns raw audio bytes into transcript text.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Config selects and parameterizes a backend.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	Language string
	// Prompt biases recognition toward domain vocabulary.
	Prompt  string
	Timeout time.Duration
	// Replacements fixes known misrecognitions before the pipeline sees the
	// text, e.g. "Gesellen" for "Gazellen".
	Replacements map[string]string
}

// Factory builds a provider from configuration.
type Factory func(cfg Config) (Provider, error)

var factories = map[string]Factory{}

// RegisterProvider makes a backend selectable by name.
func RegisterProvider(name string, factory Factory) {
	factories[name] = factory
}

// NewProvider builds the configured backend.
func NewProvider(cfg Config) (Provider, error) {
	factory, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported STT provider %q (known: %v)", cfg.Provider, providerNames())
	}
	return factory(cfg)
}

func providerNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

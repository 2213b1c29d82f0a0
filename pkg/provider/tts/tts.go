// Package tts abstracts text-to-speech backends behind a capability
// interface with named variants selected by configuration.
package tts

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Provider renders text as spoken audio.
type Provider interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Config selects and parameterizes a backend.
type Config struct {
	Provider string
	Model    string
	Voice    string
	APIKey   string
	Language string
	Timeout  time.Duration
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
		return nil, fmt.Errorf("unsupported TTS provider %q (known: %v)", cfg.Provider, providerNames())
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

// Package billing hands confirmed invoices to external billing systems.
// Adapters are selected by name from a registry validated at registration
// time, not loaded dynamically.
package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// Adapter is the billing system hand-off contract.
type Adapter interface {
	Dispatch(ctx context.Context, inv *models.InvoiceContext) (map[string]any, error)
}

// Config selects and parameterizes an adapter.
type Config struct {
	Adapter  string
	Endpoint string
	Timeout  time.Duration
}

// Factory builds an adapter from configuration.
type Factory func(cfg Config) (Adapter, error)

var factories = map[string]Factory{}

// RegisterAdapter makes an adapter selectable by name.
func RegisterAdapter(name string, factory Factory) {
	factories[name] = factory
}

// NewAdapter builds the configured adapter. An empty name selects the no-op
// default.
func NewAdapter(cfg Config) (Adapter, error) {
	if cfg.Adapter == "" {
		cfg.Adapter = "simple"
	}
	factory, ok := factories[cfg.Adapter]
	if !ok {
		return nil, fmt.Errorf("unsupported billing adapter %q (known: %v)", cfg.Adapter, adapterNames())
	}
	return factory(cfg)
}

func adapterNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

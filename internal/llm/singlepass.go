package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// SinglePassExtractor is the legacy path: one completion asking for the full
// invoice document, normalized by the lenient parser. Unlike the historical
// behavior it does not substitute a placeholder invoice on failure — it
// raises a typed extraction error and leaves the fallback decision to the
// conversation layer.
type SinglePassExtractor struct {
	provider CompletionProvider
	logger   *zap.Logger
}

// NewSinglePassExtractor creates a legacy single-pass extractor.
func NewSinglePassExtractor(provider CompletionProvider, logger *zap.Logger) *SinglePassExtractor {
	return &SinglePassExtractor{provider: provider, logger: logger}
}

// Extract asks for the complete invoice in one request and parses the
// response leniently.
func (e *SinglePassExtractor) Extract(ctx context.Context, transcript string) (*models.InvoiceContext, error) {
	raw, err := e.provider.Complete(ctx, systemInstruction, buildSinglePassPrompt(transcript))
	if err != nil {
		return nil, err
	}
	invoice, err := models.ParseInvoiceContext(raw)
	if err != nil {
		e.logger.Warn("Single-pass payload unparseable", zap.Error(err))
		return nil, fmt.Errorf("%w: single pass: %v", ErrInvalidPassPayload, err)
	}
	return invoice, nil
}

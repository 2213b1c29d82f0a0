package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bfindeiss/handwerker-app/internal/extract"
	"github.com/bfindeiss/handwerker-app/internal/models"
)

// pass describes one reconciliation pass: a fact domain with its own task
// prompt and response schema.
type pass struct {
	name   string
	task   string
	schema map[string]any
}

func passes() []pass {
	return []pass{
		{name: "customer", task: customerPassTask, schema: CustomerPassSchema()},
		{name: "material", task: materialPassTask, schema: LineItemPassSchema(models.CategoryMaterial)},
		{name: "labor", task: laborPassTask, schema: LineItemPassSchema(models.CategoryLabor)},
		{name: "travel", task: travelPassTask, schema: LineItemPassSchema(models.CategoryTravel)},
	}
}

// MultiPassExtractor reconciles deterministic candidates with the annotator
// through four independent schema-validated passes.
type MultiPassExtractor struct {
	provider CompletionProvider
	logger   *zap.Logger
}

// NewMultiPassExtractor creates a multi-pass extractor.
func NewMultiPassExtractor(provider CompletionProvider, logger *zap.Logger) *MultiPassExtractor {
	return &MultiPassExtractor{provider: provider, logger: logger}
}

// Extract runs the deterministic extractor once, issues the four passes
// concurrently (customer, material, labor, travel), validates and repairs
// each response, and merges the partial results. A failure in any pass fails
// the whole extraction; there is no partial commit. The merged result must
// contain at least one line item.
func (e *MultiPassExtractor) Extract(ctx context.Context, transcript string) (*models.ExtractionResult, error) {
	candidates := extract.Candidates(transcript)
	candidatesJSON, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}

	passList := passes()
	results := make([]*models.PassResult, len(passList))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, p := range passList {
		i, p := i, p
		group.Go(func() error {
			result, err := e.runPass(groupCtx, p, transcript, string(candidatesJSON))
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return mergePassResults(results)
}

// ExtractInvoice runs Extract and converts the result into the working
// invoice shape used by the conversation layer.
func (e *MultiPassExtractor) ExtractInvoice(ctx context.Context, transcript string) (*models.InvoiceContext, error) {
	result, err := e.Extract(ctx, transcript)
	if err != nil {
		return nil, err
	}
	return models.ExtractionToInvoiceContext(result), nil
}

// runPass issues one pass request and validates the response. On validation
// failure a single repair attempt is made with the invalid payload; a second
// failure propagates as an invalid-pass-payload error naming the pass.
func (e *MultiPassExtractor) runPass(ctx context.Context, p pass, transcript, candidatesJSON string) (*models.PassResult, error) {
	prompt := buildPassPrompt(p.task, p.schema, transcript, candidatesJSON)
	raw, err := e.provider.Complete(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", p.name, err)
	}

	result, validationErr := parsePassPayload(raw, p.schema)
	if validationErr == nil {
		return result, nil
	}

	e.logger.Warn("Pass payload invalid, attempting repair",
		zap.String("pass", p.name),
		zap.Error(validationErr))

	repaired, err := e.provider.Complete(ctx, systemInstruction, buildRepairPrompt(raw, p.schema))
	if err != nil {
		return nil, fmt.Errorf("%s pass repair: %w", p.name, err)
	}
	result, validationErr = parsePassPayload(repaired, p.schema)
	if validationErr != nil {
		return nil, fmt.Errorf("%w: %s pass: %v", ErrInvalidPassPayload, p.name, validationErr)
	}
	return result, nil
}

func parsePassPayload(raw string, schema map[string]any) (*models.PassResult, error) {
	cleaned, err := models.CleanJSONText(raw, "empty pass payload")
	if err != nil {
		return nil, err
	}
	if err := ValidateAgainstSchema(schema, []byte(cleaned)); err != nil {
		return nil, err
	}
	var result models.PassResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("decode pass payload: %w", err)
	}
	return &result, nil
}

// mergePassResults combines the four partial results: the customer comes from
// the first pass, line items are concatenated in the fixed material, labor,
// travel order and notes are concatenated across all passes.
func mergePassResults(results []*models.PassResult) (*models.ExtractionResult, error) {
	merged := &models.ExtractionResult{}
	for i, result := range results {
		if result == nil {
			continue
		}
		if i == 0 && result.Customer != nil {
			merged.Customer = result.Customer
		}
		merged.LineItems = append(merged.LineItems, result.LineItems...)
		merged.Notes = append(merged.Notes, result.Notes...)
	}
	if missing := models.MissingExtractionFields(merged); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, missing[0])
	}
	return merged, nil
}

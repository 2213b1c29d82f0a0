package models

// LineItem is the annotator-facing line item. The wire schema is strict:
// unknown fields are rejected during schema validation to force conformance.
type LineItem struct {
	Description    string   `json:"description"`
	Type           string   `json:"type"`
	Role           string   `json:"role,omitempty"`
	Quantity       *float64 `json:"quantity,omitempty"`
	Unit           string   `json:"unit,omitempty"`
	UnitPriceCents *int64   `json:"unit_price_cents,omitempty"`
}

// ExtractionResult is the merged multi-pass extraction payload.
type ExtractionResult struct {
	Customer           *Customer          `json:"customer,omitempty"`
	LineItems          []LineItem         `json:"line_items"`
	Notes              []string           `json:"notes,omitempty"`
	ConfidencePerField map[string]float64 `json:"confidence_per_field,omitempty"`
}

// PassResult is the payload of a single reconciliation pass. The customer
// pass fills Customer; the item passes fill LineItems.
type PassResult struct {
	Customer           *Customer          `json:"customer,omitempty"`
	LineItems          []LineItem         `json:"line_items,omitempty"`
	Notes              []string           `json:"notes,omitempty"`
	ConfidencePerField map[string]float64 `json:"confidence_per_field,omitempty"`
}

// MissingExtractionFields lists mandatory extraction content that is absent.
// An extraction without a single line item is unusable.
func MissingExtractionFields(result *ExtractionResult) []string {
	var missing []string
	if len(result.LineItems) == 0 {
		missing = append(missing, "line_items")
	}
	return missing
}

// ExtractionToInvoiceContext converts a validated extraction result into the
// working invoice shape: minor currency units become major-unit floats, the
// address is flattened to a display string and the service description is
// left blank for the conversation layer to fill.
func ExtractionToInvoiceContext(result *ExtractionResult) *InvoiceContext {
	invoice := NewInvoiceContext()
	if result.Customer != nil {
		invoice.Customer = CustomerInfo{
			Name:    result.Customer.Name,
			Address: FormatAddress(result.Customer.Address),
		}
	}
	invoice.Items = make([]InvoiceItem, 0, len(result.LineItems))
	for _, li := range result.LineItems {
		var unitPrice float64
		if li.UnitPriceCents != nil {
			unitPrice = float64(*li.UnitPriceCents) / 100.0
		}
		var quantity float64
		if li.Quantity != nil {
			quantity = *li.Quantity
		}
		invoice.Items = append(invoice.Items, InvoiceItem{
			Description:      li.Description,
			Category:         li.Type,
			Quantity:         quantity,
			Unit:             li.Unit,
			UnitPrice:        unitPrice,
			WorkerRole:       li.Role,
			OriginalCategory: li.Type,
			CategorySource:   CategorySourceLLM,
		})
	}
	return invoice
}

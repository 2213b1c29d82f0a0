package models

import (
	"strings"
	"time"
)

// Item categories. Every invoice position carries exactly one.
const (
	CategoryMaterial = "material"
	CategoryLabor    = "labor"
	CategoryTravel   = "travel"
)

// Worker roles for labor positions.
const (
	RoleMeister = "meister"
	RoleGeselle = "geselle"
)

// Sources for an item's final category.
const (
	CategorySourceLLM       = "llm"
	CategorySourceHeuristic = "heuristic"
)

// Placeholder values used while the conversation is still collecting data.
const (
	UnknownCustomerName       = "Unbekannter Kunde"
	UnknownServiceDescription = "Dienstleistung nicht näher beschrieben"

	// LaborPlaceholderPrefix marks synthesized labor estimates such as
	// "Arbeitszeit Geselle". A specific labor description supersedes them.
	LaborPlaceholderPrefix = "Arbeitszeit"
)

// genericMaterialNames are descriptions that stand in for "some material"
// until a concrete position is known.
var genericMaterialNames = map[string]bool{
	"material":       true,
	"materialkosten": true,
}

// IsGenericMaterialDescription reports whether a material description is a
// placeholder like "Material" or "Materialkosten".
func IsGenericMaterialDescription(description string) bool {
	return genericMaterialNames[strings.ToLower(strings.TrimSpace(description))]
}

// InvoiceItem is a single position of the working invoice.
type InvoiceItem struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	// WorkerRole is set for labor positions ("Meister", "Geselle", ...).
	WorkerRole string `json:"worker_role,omitempty"`
	// OriginalCategory preserves the category the LLM assigned before any
	// keyword heuristic overrode it. The disagreement is kept for evaluation.
	OriginalCategory string `json:"original_category,omitempty"`
	// CategorySource records which side won: "llm" or "heuristic".
	CategorySource string `json:"category_source,omitempty"`
}

// Total returns quantity × unit price.
func (i InvoiceItem) Total() float64 {
	return i.Quantity * i.UnitPrice
}

// IsLaborPlaceholder reports whether the item is a synthesized labor estimate.
func (i InvoiceItem) IsLaborPlaceholder() bool {
	return i.Category == CategoryLabor &&
		strings.HasPrefix(i.Description, LaborPlaceholderPrefix) &&
		i.UnitPrice == 0
}

// Amount holds the priced totals of an invoice.
type Amount struct {
	Net      float64 `json:"net"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
	// Priced is set once the pricing engine has run; the net/tax/total
	// invariants only hold when it is true.
	Priced bool `json:"-"`
}

// Service describes the performed work.
type Service struct {
	Description      string `json:"description"`
	MaterialIncluded bool   `json:"materialIncluded"`
}

// CustomerInfo is the customer as rendered on the invoice: a display name and
// a single formatted address line.
type CustomerInfo struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// InvoiceContext is the aggregate invoice state of one conversation session.
// It is mutated turn by turn; after any item mutation the pricing engine must
// run again before the amount can be trusted.
type InvoiceContext struct {
	Type          string        `json:"type"`
	Customer      CustomerInfo  `json:"customer"`
	Service       Service       `json:"service"`
	Items         []InvoiceItem `json:"items"`
	Amount        Amount        `json:"amount"`
	InvoiceNumber string        `json:"invoice_number,omitempty"`
	IssueDate     string        `json:"issue_date,omitempty"`
}

// NewInvoiceContext returns an empty invoice shell.
func NewInvoiceContext() *InvoiceContext {
	return &InvoiceContext{
		Type:   "InvoiceContext",
		Amount: Amount{Currency: "EUR"},
	}
}

// Clone returns a deep copy. Pending-confirmation snapshots and the merge
// algorithm rely on this so later corrections cannot mutate summarized state.
func (inv *InvoiceContext) Clone() *InvoiceContext {
	clone := *inv
	clone.Items = make([]InvoiceItem, len(inv.Items))
	copy(clone.Items, inv.Items)
	return &clone
}

// HasItemWithCategory reports whether any position carries the category.
func (inv *InvoiceContext) HasItemWithCategory(category string) bool {
	for _, item := range inv.Items {
		if item.Category == category {
			return true
		}
	}
	return false
}

// SetIssueDate stores the issue date in ISO form.
func (inv *InvoiceContext) SetIssueDate(t time.Time) {
	inv.IssueDate = t.Format("2006-01-02")
}

// MissingInvoiceFields lists required fields that are still absent. A valid
// invoice needs a customer name, a service description, at least one item and
// a total amount.
func MissingInvoiceFields(inv *InvoiceContext) []string {
	var missing []string
	if strings.TrimSpace(inv.Customer.Name) == "" {
		missing = append(missing, "customer.name")
	}
	if strings.TrimSpace(inv.Service.Description) == "" {
		missing = append(missing, "service.description")
	}
	if len(inv.Items) == 0 {
		missing = append(missing, "items")
	}
	if !inv.Amount.Priced {
		missing = append(missing, "amount.total")
	}
	return missing
}

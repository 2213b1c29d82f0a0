// Package pricing fills in missing prices, computes net/tax/gross and
// assigns invoice number and issue date. Applying it twice without item
// changes yields the exact same result.
package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

var (
	// ErrMissingMaterialPrice is raised when a material has neither a
	// registry price nor a configured default. The message names the item.
	ErrMissingMaterialPrice = errors.New("material price missing")

	// ErrUnknownCategory is raised for items outside material/labor/travel.
	ErrUnknownCategory = errors.New("unknown item category")
)

// azubiFactor is the fraction of the default labor rate billed for
// apprentices.
const azubiFactor = 0.6

// Rates are the configured default unit rates.
type Rates struct {
	LaborMeister    float64
	LaborGeselle    float64
	LaborDefault    float64
	TravelPerKm     float64
	MaterialDefault *float64
	VATRate         float64
}

// Engine prices invoices in place.
type Engine struct {
	rates    Rates
	registry PriceRegistry
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates a pricing engine.
func NewEngine(rates Rates, registry PriceRegistry, logger *zap.Logger) *Engine {
	return &Engine{rates: rates, registry: registry, logger: logger, now: time.Now}
}

// Apply prices every item, recomputes the totals and assigns invoice number
// and issue date if absent. It is re-entrant: re-applying after an item
// mutation is the only way to make the amount trustworthy again.
func (e *Engine) Apply(invoice *models.InvoiceContext) error {
	for i := range invoice.Items {
		if err := e.priceItem(&invoice.Items[i]); err != nil {
			return err
		}
	}

	net := decimal.Zero
	for _, item := range invoice.Items {
		total := decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.UnitPrice))
		net = net.Add(total)
	}
	net = net.Round(2)
	tax := net.Mul(decimal.NewFromFloat(e.rates.VATRate)).Round(2)

	invoice.Amount.Net = net.InexactFloat64()
	invoice.Amount.Tax = tax.InexactFloat64()
	invoice.Amount.Total = net.Add(tax).InexactFloat64()
	if invoice.Amount.Currency == "" {
		invoice.Amount.Currency = "EUR"
	}
	invoice.Amount.Priced = true

	// Number and date are assigned exactly once and stay stable across
	// re-pricing.
	if invoice.InvoiceNumber == "" {
		invoice.InvoiceNumber = fmt.Sprintf("INV-%s", e.now().UTC().Format("20060102150405"))
	}
	if invoice.IssueDate == "" {
		invoice.SetIssueDate(e.now())
	}
	return nil
}

func (e *Engine) priceItem(item *models.InvoiceItem) error {
	switch item.Category {
	case models.CategoryTravel:
		// Travel pricing is policy-fixed: the configured per-km rate wins
		// even over a supplied price.
		item.UnitPrice = e.rates.TravelPerKm
		return nil
	case models.CategoryLabor:
		if item.UnitPrice > 0 {
			return nil
		}
		item.UnitPrice = e.laborRate(item.WorkerRole)
		return nil
	case models.CategoryMaterial:
		return e.priceMaterial(item)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCategory, item.Category)
	}
}

func (e *Engine) laborRate(workerRole string) float64 {
	role := strings.ToLower(workerRole)
	switch {
	case strings.Contains(role, "meister"):
		return e.rates.LaborMeister
	case strings.Contains(role, "gesell"):
		return e.rates.LaborGeselle
	case strings.Contains(role, "azub"):
		return e.rates.LaborDefault * azubiFactor
	default:
		return e.rates.LaborDefault
	}
}

func (e *Engine) priceMaterial(item *models.InvoiceItem) error {
	if item.UnitPrice > 0 {
		// Learn user-supplied prices for descriptions the registry does
		// not know yet. Zero-quantity placeholders carry totals, not unit
		// prices, and are not worth remembering.
		if item.Quantity > 0 {
			if _, known, err := e.registry.Lookup(item.Description); err == nil && !known {
				if err := e.registry.Register(item.Description, item.UnitPrice); err != nil {
					e.logger.Warn("Failed to record material price",
						zap.String("description", item.Description),
						zap.Error(err))
				}
			}
		}
		return nil
	}

	price, known, err := e.registry.Lookup(item.Description)
	if err != nil {
		return err
	}
	if known {
		item.UnitPrice = price
		return nil
	}
	if e.rates.MaterialDefault != nil {
		item.UnitPrice = *e.rates.MaterialDefault
		return nil
	}
	if item.Quantity == 0 {
		// A zero-quantity placeholder without any known price contributes
		// nothing to the total; forcing zero keeps the conversation moving.
		item.UnitPrice = 0
		return nil
	}
	return fmt.Errorf("%w: %q", ErrMissingMaterialPrice, item.Description)
}

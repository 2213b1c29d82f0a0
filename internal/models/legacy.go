package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

var (
	travelKeywords = []string{"anfahrt", "fahrtkosten", "kilometer"}
	laborKeywords  = []string{"stund", "arbeitszeit", "handwerker"}
	laborUnits     = map[string]bool{"h": true, "std": true, "stunde": true, "stunden": true}
	currencyUnits  = map[string]bool{"euro": true, "eur": true, "€": true}
)

// ParseInvoiceContext turns raw LLM JSON into an InvoiceContext. Payloads
// using the strict extraction schema (a "line_items" key) are validated
// against it; anything else goes through the lenient legacy normalization:
// markdown fences and comments are stripped, string-only items become
// zero-priced placeholders, categories are reclassified by keyword evidence
// (the pre-heuristic value is kept in OriginalCategory), currency-as-unit
// items are folded into a quantity-1 position, and empty items are dropped.
// Items with zero quantity but a price survive — LLMs often report material
// totals without a countable quantity.
func ParseInvoiceContext(invoiceJSON string) (*InvoiceContext, error) {
	cleaned, err := CleanJSONText(invoiceJSON, "empty invoice context")
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("invalid invoice context: %w", err)
	}

	if _, ok := data["line_items"]; ok {
		var extraction ExtractionResult
		if err := json.Unmarshal([]byte(cleaned), &extraction); err != nil {
			return nil, fmt.Errorf("invalid extraction result: %w", err)
		}
		if missing := MissingExtractionFields(&extraction); len(missing) > 0 {
			return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
		}
		return ExtractionToInvoiceContext(&extraction), nil
	}

	invoice := NewInvoiceContext()
	invoice.Customer = parseLegacyCustomer(data["customer"])
	invoice.Service = parseLegacyService(data["service"])
	invoice.Amount = parseLegacyAmount(data["amount"])

	rawItems, _ := data["items"].([]any)
	for _, raw := range rawItems {
		item, ok := normalizeLegacyItem(raw)
		if !ok {
			continue
		}
		// Placeholders with neither description nor any value are noise.
		if strings.TrimSpace(item.Description) == "" {
			continue
		}
		if item.Quantity <= 0 && item.UnitPrice <= 0 {
			continue
		}
		invoice.Items = append(invoice.Items, item)
	}
	return invoice, nil
}

func parseLegacyCustomer(raw any) CustomerInfo {
	customer, ok := raw.(map[string]any)
	if !ok {
		return CustomerInfo{}
	}
	info := CustomerInfo{Name: stringField(customer, "name")}
	if addr, ok := customer["address"].(string); ok {
		info.Address = NormalizeAddress(addr)
	}
	return info
}

func parseLegacyService(raw any) Service {
	service, ok := raw.(map[string]any)
	if !ok {
		return Service{}
	}
	included, _ := service["materialIncluded"].(bool)
	return Service{
		Description:      stringField(service, "description"),
		MaterialIncluded: included,
	}
}

func parseLegacyAmount(raw any) Amount {
	amount := Amount{Currency: "EUR"}
	m, ok := raw.(map[string]any)
	if !ok {
		return amount
	}
	if currency := stringField(m, "currency"); currency != "" {
		amount.Currency = currency
	}
	if total, ok := m["total"].(float64); ok {
		amount.Total = total
	}
	return amount
}

// normalizeLegacyItem coerces one raw item entry into an InvoiceItem,
// applying the category heuristics. Returns false for uninterpretable
// entries, which are skipped.
func normalizeLegacyItem(raw any) (InvoiceItem, bool) {
	var item InvoiceItem
	switch v := raw.(type) {
	case string:
		// Bare strings become zero-priced placeholder positions so the
		// conversation can ask about them instead of losing them.
		item = InvoiceItem{Description: v}
	case map[string]any:
		item = InvoiceItem{
			Description: stringField(v, "description"),
			Unit:        stringField(v, "unit"),
			WorkerRole:  stringField(v, "worker_role"),
		}
		if qty, ok := v["quantity"].(float64); ok {
			item.Quantity = qty
		}
		if price, ok := v["unit_price"].(float64); ok {
			item.UnitPrice = price
		}
		item.Category = stringField(v, "category")
	default:
		return InvoiceItem{}, false
	}

	applyCategoryHeuristics(&item)
	foldCurrencyUnit(&item)
	return item, true
}

// applyCategoryHeuristics reclassifies an item when its description or unit
// carries keyword evidence that contradicts the LLM category. The original
// value is retained so the disagreement stays visible.
func applyCategoryHeuristics(item *InvoiceItem) {
	desc := strings.ToLower(item.Description)
	unit := strings.ToLower(strings.TrimSpace(item.Unit))

	normalized := ""
	switch strings.ToLower(item.Category) {
	case CategoryMaterial, CategoryTravel, CategoryLabor:
		normalized = strings.ToLower(item.Category)
	}

	heuristic := ""
	switch {
	case containsAny(desc, travelKeywords):
		heuristic = CategoryTravel
	case laborUnits[unit] || containsAny(desc, laborKeywords):
		heuristic = CategoryLabor
	case normalized == "":
		heuristic = CategoryMaterial
	}

	item.OriginalCategory = normalized
	if heuristic != "" && heuristic != normalized {
		item.Category = heuristic
		item.CategorySource = CategorySourceHeuristic
		return
	}
	if normalized != "" {
		item.Category = normalized
		item.CategorySource = CategorySourceLLM
		return
	}
	item.Category = CategoryMaterial
	item.CategorySource = CategorySourceHeuristic
}

// foldCurrencyUnit repairs items where the LLM put the currency into the unit
// field ("3 Euro"): the larger of quantity and unit price is taken as the
// price of a single position.
func foldCurrencyUnit(item *InvoiceItem) {
	if !currencyUnits[strings.ToLower(strings.TrimSpace(item.Unit))] {
		return
	}
	value := item.Quantity
	if item.UnitPrice > value {
		value = item.UnitPrice
	}
	item.Quantity = 1.0
	item.UnitPrice = value
	item.Unit = "EUR"
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

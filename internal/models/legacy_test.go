package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvoiceContextLegacyShape(t *testing.T) {
	raw := `{
		"customer": {"name": "Hans Meier", "address": "Hauptstraße 5 in 80331 München"},
		"service": {"description": "Malen", "materialIncluded": true},
		"items": [
			{"description": "Wandfarbe", "category": "material", "quantity": 2, "unit": "Eimer", "unit_price": 30}
		],
		"amount": {"total": 100.0, "currency": "EUR"}
	}`

	invoice, err := ParseInvoiceContext(raw)
	require.NoError(t, err)

	assert.Equal(t, "Hans Meier", invoice.Customer.Name)
	assert.Equal(t, "Hauptstraße 5, 80331 München", invoice.Customer.Address)
	assert.Equal(t, "Malen", invoice.Service.Description)
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, CategoryMaterial, invoice.Items[0].Category)
	assert.Equal(t, CategorySourceLLM, invoice.Items[0].CategorySource)
}

func TestParseInvoiceContextStringItemBecomesPlaceholder(t *testing.T) {
	raw := `{"customer": {}, "service": {}, "items": ["Arbeitszeit 3 Stunden", ""], "amount": {}}`

	invoice, err := ParseInvoiceContext(raw)
	require.NoError(t, err)

	// The empty string is dropped; the non-empty one has no value either and
	// is dropped too. Placeholder survival needs at least a quantity or price.
	assert.Empty(t, invoice.Items)
}

func TestParseInvoiceContextHeuristicOverridesCategory(t *testing.T) {
	raw := `{
		"customer": {}, "service": {},
		"items": [
			{"description": "Anfahrt zur Baustelle", "category": "material", "quantity": 10, "unit": "km", "unit_price": 1},
			{"description": "Montage", "category": "material", "quantity": 3, "unit": "Stunden", "unit_price": 50}
		],
		"amount": {}
	}`

	invoice, err := ParseInvoiceContext(raw)
	require.NoError(t, err)
	require.Len(t, invoice.Items, 2)

	travel := invoice.Items[0]
	assert.Equal(t, CategoryTravel, travel.Category)
	assert.Equal(t, CategoryMaterial, travel.OriginalCategory)
	assert.Equal(t, CategorySourceHeuristic, travel.CategorySource)

	labor := invoice.Items[1]
	assert.Equal(t, CategoryLabor, labor.Category)
	assert.Equal(t, CategoryMaterial, labor.OriginalCategory)
	assert.Equal(t, CategorySourceHeuristic, labor.CategorySource)
}

func TestParseInvoiceContextFoldsCurrencyUnit(t *testing.T) {
	raw := `{
		"customer": {}, "service": {},
		"items": [{"description": "Silikon", "category": "material", "quantity": 12, "unit": "Euro", "unit_price": 0}],
		"amount": {}
	}`

	invoice, err := ParseInvoiceContext(raw)
	require.NoError(t, err)
	require.Len(t, invoice.Items, 1)

	item := invoice.Items[0]
	assert.Equal(t, 1.0, item.Quantity)
	assert.Equal(t, 12.0, item.UnitPrice)
	assert.Equal(t, "EUR", item.Unit)
}

func TestParseInvoiceContextKeepsZeroQuantityPricedItems(t *testing.T) {
	raw := `{
		"customer": {}, "service": {},
		"items": [{"description": "Materialkosten", "category": "material", "quantity": 0, "unit": "", "unit_price": 175.5}],
		"amount": {}
	}`

	invoice, err := ParseInvoiceContext(raw)
	require.NoError(t, err)
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, 175.5, invoice.Items[0].UnitPrice)
}

func TestParseInvoiceContextStrictSchema(t *testing.T) {
	raw := `{
		"customer": {"name": "Anna"},
		"line_items": [
			{"description": "Fenster", "type": "material", "quantity": 2, "unit": "Stk", "unit_price_cents": 20000}
		]
	}`

	invoice, err := ParseInvoiceContext(raw)
	require.NoError(t, err)

	assert.Equal(t, "Anna", invoice.Customer.Name)
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, 200.0, invoice.Items[0].UnitPrice)
}

func TestParseInvoiceContextStrictSchemaMissingItems(t *testing.T) {
	_, err := ParseInvoiceContext(`{"customer": {"name": "Anna"}, "line_items": []}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line_items")
}

func TestParseInvoiceContextInvalidJSON(t *testing.T) {
	_, err := ParseInvoiceContext("kaputt")
	assert.Error(t, err)
}

func TestInvoiceContextClone(t *testing.T) {
	original := NewInvoiceContext()
	original.Items = append(original.Items, InvoiceItem{Description: "Anfahrt", Category: CategoryTravel, Quantity: 10})

	clone := original.Clone()
	clone.Items[0].Quantity = 99
	clone.Customer.Name = "Jemand"

	assert.Equal(t, 10.0, original.Items[0].Quantity)
	assert.Empty(t, original.Customer.Name)
}

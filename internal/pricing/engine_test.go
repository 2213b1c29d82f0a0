package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

func testRates() Rates {
	return Rates{
		LaborMeister: 80,
		LaborGeselle: 60,
		LaborDefault: 50,
		TravelPerKm:  1.0,
		VATRate:      0.19,
	}
}

func newTestEngine(t *testing.T, rates Rates, seed map[string]float64) *Engine {
	t.Helper()
	engine := NewEngine(rates, NewMemoryRegistry(seed), zap.NewNop())
	engine.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}
	return engine
}

func TestApplyPricesAndTotals(t *testing.T) {
	engine := newTestEngine(t, testRates(), nil)
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "Fliesen verlegen", Category: models.CategoryLabor, Quantity: 6, Unit: "h", WorkerRole: "Geselle"},
		{Description: "Fliesen", Category: models.CategoryMaterial, Quantity: 2, Unit: "qm", UnitPrice: 40},
		{Description: "Anfahrt", Category: models.CategoryTravel, Quantity: 25, Unit: "km"},
	}

	require.NoError(t, engine.Apply(inv))

	assert.Equal(t, 60.0, inv.Items[0].UnitPrice)
	assert.Equal(t, 1.0, inv.Items[2].UnitPrice)
	// 6*60 + 2*40 + 25*1 = 465
	assert.Equal(t, 465.0, inv.Amount.Net)
	assert.Equal(t, 88.35, inv.Amount.Tax)
	assert.Equal(t, 553.35, inv.Amount.Total)
	assert.Equal(t, "EUR", inv.Amount.Currency)
	assert.True(t, inv.Amount.Priced)
	assert.Equal(t, "INV-20260829120000", inv.InvoiceNumber)
	assert.Equal(t, "2026-08-29", inv.IssueDate)
}

func TestApplyIsIdempotent(t *testing.T) {
	engine := newTestEngine(t, testRates(), nil)
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "Arbeitszeit Meister", Category: models.CategoryLabor, Quantity: 2, Unit: "h", WorkerRole: "Meister"},
	}

	require.NoError(t, engine.Apply(inv))
	first := *inv

	engine.now = func() time.Time { return time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, engine.Apply(inv))

	assert.Equal(t, first.Amount, inv.Amount)
	assert.Equal(t, first.InvoiceNumber, inv.InvoiceNumber)
	assert.Equal(t, first.IssueDate, inv.IssueDate)
}

func TestTravelRateOverridesSuppliedPrice(t *testing.T) {
	engine := newTestEngine(t, testRates(), nil)
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "Anfahrt", Category: models.CategoryTravel, Quantity: 10, Unit: "km", UnitPrice: 123.45},
	}

	require.NoError(t, engine.Apply(inv))
	assert.Equal(t, 1.0, inv.Items[0].UnitPrice)
}

func TestLaborRates(t *testing.T) {
	engine := newTestEngine(t, testRates(), nil)
	tests := []struct {
		role string
		want float64
	}{
		{"Meister", 80},
		{"Geselle", 60},
		{"Gesellen", 60},
		{"Azubi", 30},
		{"", 50},
	}
	for _, tt := range tests {
		t.Run("role "+tt.role, func(t *testing.T) {
			inv := models.NewInvoiceContext()
			inv.Items = []models.InvoiceItem{
				{Description: "Arbeitszeit", Category: models.CategoryLabor, Quantity: 1, Unit: "h", WorkerRole: tt.role},
			}
			require.NoError(t, engine.Apply(inv))
			assert.Equal(t, tt.want, inv.Items[0].UnitPrice)
		})
	}
}

func TestExplicitLaborPriceKept(t *testing.T) {
	engine := newTestEngine(t, testRates(), nil)
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "Notdienst", Category: models.CategoryLabor, Quantity: 1, Unit: "h", UnitPrice: 120, WorkerRole: "Meister"},
	}

	require.NoError(t, engine.Apply(inv))
	assert.Equal(t, 120.0, inv.Items[0].UnitPrice)
}

func TestMaterialFromRegistry(t *testing.T) {
	engine := newTestEngine(t, testRates(), map[string]float64{"Silikon": 12.5})
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "silikon", Category: models.CategoryMaterial, Quantity: 2},
	}

	require.NoError(t, engine.Apply(inv))
	assert.Equal(t, 12.5, inv.Items[0].UnitPrice)
}

func TestMaterialLearnsUserPrice(t *testing.T) {
	registry := NewMemoryRegistry(nil)
	engine := NewEngine(testRates(), registry, zap.NewNop())
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "Wandfarbe", Category: models.CategoryMaterial, Quantity: 2, UnitPrice: 30},
	}

	require.NoError(t, engine.Apply(inv))

	price, known, err := registry.Lookup("wandfarbe")
	require.NoError(t, err)
	assert.True(t, known)
	assert.Equal(t, 30.0, price)
}

func TestMaterialDefaultRate(t *testing.T) {
	rates := testRates()
	fallback := 5.0
	rates.MaterialDefault = &fallback
	engine := newTestEngine(t, rates, nil)
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "Schrauben", Category: models.CategoryMaterial, Quantity: 10},
	}

	require.NoError(t, engine.Apply(inv))
	assert.Equal(t, 5.0, inv.Items[0].UnitPrice)
}

func TestMaterialMissingPriceFails(t *testing.T) {
	engine := newTestEngine(t, testRates(), nil)
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "Schrauben", Category: models.CategoryMaterial, Quantity: 10},
	}

	err := engine.Apply(inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingMaterialPrice)
	assert.Contains(t, err.Error(), "Schrauben")
}

func TestZeroQuantityMaterialPlaceholderForcedZero(t *testing.T) {
	engine := newTestEngine(t, testRates(), nil)
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "Materialkosten", Category: models.CategoryMaterial},
	}

	require.NoError(t, engine.Apply(inv))
	assert.Equal(t, 0.0, inv.Items[0].UnitPrice)
}

func TestUnknownCategoryFails(t *testing.T) {
	engine := newTestEngine(t, testRates(), nil)
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{{Description: "X", Category: "sonstiges"}}

	assert.ErrorIs(t, engine.Apply(inv), ErrUnknownCategory)
}

package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

func TestParseCompanyName(t *testing.T) {
	name, ok := parseCompanyName("Speichere meinen Firmennamen Muster GmbH.")
	assert.True(t, ok)
	assert.Equal(t, "Muster GmbH", name)

	name, ok = parseCompanyName("Speichere meinen Firmennamen")
	assert.True(t, ok)
	assert.Empty(t, name)

	_, ok = parseCompanyName("Der Kunde heißt Muster GmbH.")
	assert.False(t, ok)
}

func correctionInvoice() *models.InvoiceContext {
	inv := models.NewInvoiceContext()
	inv.Items = []models.InvoiceItem{
		{Description: "Streichen", Category: models.CategoryLabor, Quantity: 6, Unit: "h", UnitPrice: 60, WorkerRole: "Geselle"},
		{Description: "Wandfarbe", Category: models.CategoryMaterial, Quantity: 2, Unit: "Eimer", UnitPrice: 30},
	}
	return inv
}

func TestApplyCorrections(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		feedback string
		check    func(t *testing.T, inv *models.InvoiceContext)
	}{
		{
			name:     "hours",
			text:     "Position 1 sind 4,5 Stunden",
			feedback: "Position 1 auf 4,5 Stunden gesetzt.",
			check: func(t *testing.T, inv *models.InvoiceContext) {
				assert.Equal(t, 4.5, inv.Items[0].Quantity)
				assert.Equal(t, "h", inv.Items[0].Unit)
			},
		},
		{
			name:     "quantity",
			text:     "Position 2 Menge 3",
			feedback: "Menge von Position 2 auf 3 gesetzt.",
			check: func(t *testing.T, inv *models.InvoiceContext) {
				assert.Equal(t, 3.0, inv.Items[1].Quantity)
			},
		},
		{
			name:     "price",
			text:     "Position 2 kostet 35,50 Euro",
			feedback: "Preis von Position 2 auf 35,50 Euro gesetzt.",
			check: func(t *testing.T, inv *models.InvoiceContext) {
				assert.Equal(t, 35.5, inv.Items[1].UnitPrice)
			},
		},
		{
			name:     "description",
			text:     "Position 2 Beschreibung Latexfarbe weiß.",
			feedback: `Beschreibung von Position 2 auf "Latexfarbe weiß" gesetzt.`,
			check: func(t *testing.T, inv *models.InvoiceContext) {
				assert.Equal(t, "Latexfarbe weiß", inv.Items[1].Description)
			},
		},
		{
			name:     "delete",
			text:     "Position 2 löschen",
			feedback: "Position 2 (Wandfarbe) gelöscht.",
			check: func(t *testing.T, inv *models.InvoiceContext) {
				require.Len(t, inv.Items, 1)
				assert.Equal(t, "Streichen", inv.Items[0].Description)
			},
		},
		{
			name:     "customer",
			text:     "Der Kunde ist Anna Schmidt.",
			feedback: "Kunde auf Anna Schmidt gesetzt.",
			check: func(t *testing.T, inv *models.InvoiceContext) {
				assert.Equal(t, "Anna Schmidt", inv.Customer.Name)
			},
		},
		{
			name:     "service",
			text:     "Die Leistung ist Malerarbeiten.",
			feedback: `Leistung auf "Malerarbeiten" gesetzt.`,
			check: func(t *testing.T, inv *models.InvoiceContext) {
				assert.Equal(t, "Malerarbeiten", inv.Service.Description)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := correctionInvoice()
			feedback, changed := applyCorrections(inv, tt.text)
			require.NotEmpty(t, feedback)
			assert.True(t, changed)
			assert.Contains(t, feedback, tt.feedback)
			tt.check(t, inv)
		})
	}
}

func TestApplyCorrectionsUnknownPosition(t *testing.T) {
	inv := correctionInvoice()
	feedback, changed := applyCorrections(inv, "Position 9 löschen")

	assert.False(t, changed)
	assert.Equal(t, []string{"Position 9 nicht gefunden."}, feedback)
	assert.Len(t, inv.Items, 2)
}

func TestApplyCorrectionsNoCommand(t *testing.T) {
	inv := correctionInvoice()
	feedback, changed := applyCorrections(inv, "Es wurden außerdem 25 km gefahren.")

	assert.False(t, changed)
	assert.Empty(t, feedback)
}

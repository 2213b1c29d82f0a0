package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialCandidatesSpanNonOverlap(t *testing.T) {
	// Both the quantity-first and the description-first pattern could claim
	// parts of this text; only the first match may survive.
	candidates := Candidates("2 Fenster je 200€")

	require.Len(t, candidates.Materials, 1)
	material := candidates.Materials[0]
	require.NotNil(t, material.Quantity)
	assert.Equal(t, 2.0, *material.Quantity)
	require.NotNil(t, material.UnitPriceCents)
	assert.Equal(t, int64(20000), *material.UnitPriceCents)
	assert.Equal(t, "Fenster", material.Description)
}

func TestBareMoneyMentionBecomesTotalCandidate(t *testing.T) {
	candidates := Candidates("Insgesamt 175,50 € für Kleinteile angefallen")

	require.Len(t, candidates.Materials, 1)
	material := candidates.Materials[0]
	assert.Nil(t, material.Quantity)
	require.NotNil(t, material.TotalPriceCents)
	assert.Equal(t, int64(17550), *material.TotalPriceCents)
	assert.Contains(t, material.Notes, "Betrag ohne explizite Menge erkannt")
}

func TestTravelCandidates(t *testing.T) {
	candidates := Candidates("Anfahrt waren 25 km")

	require.Len(t, candidates.Travel, 1)
	assert.Equal(t, 25.0, candidates.Travel[0].Kilometers)
	assert.Equal(t, "Anfahrt", candidates.Travel[0].Description)
}

func TestLaborHoursBothDirections(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "hours before role", text: "3 Stunden Geselle", want: 3.0},
		{name: "role before hours", text: "Geselle 3 Stunden", want: 3.0},
		{name: "decimal hours", text: "2,5 Stunden Geselle", want: 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labor := LaborHours(tt.text)
			require.NotNil(t, labor.GeselleHours)
			assert.Equal(t, tt.want, *labor.GeselleHours)
			assert.Nil(t, labor.MeisterHours)
		})
	}
}

func TestLaborHoursRoleWithoutNumber(t *testing.T) {
	labor := LaborHours("Der Meister war auch dabei")

	assert.Nil(t, labor.MeisterHours)
	assert.Contains(t, labor.Notes, "meister erwähnt, aber keine Stunden erkannt")
}

func TestLaborHoursMultipleValuesFirstWins(t *testing.T) {
	labor := LaborHours("Meister 3 Stunden und später Meister 5 Stunden")

	require.NotNil(t, labor.MeisterHours)
	assert.Equal(t, 3.0, *labor.MeisterHours)
	assert.Contains(t, labor.Notes, "Mehrere meister-Stunden erkannt, nehme den ersten Wert")
}

func TestLaborHoursWithoutRole(t *testing.T) {
	labor := LaborHours("Es waren insgesamt viele Stunden")

	assert.Nil(t, labor.MeisterHours)
	assert.Nil(t, labor.GeselleHours)
	assert.Contains(t, labor.Notes, "Stunden erwähnt, aber keine Rolle erkannt")
}

func TestAddressCandidateFull(t *testing.T) {
	candidates := Candidates("Der Kunde wohnt Hauptstraße 5, 80331 München")

	require.NotNil(t, candidates.Address)
	require.NotNil(t, candidates.Address.Address)
	address := candidates.Address.Address
	assert.Equal(t, "Hauptstraße 5", address.Street)
	assert.Equal(t, "80331", address.PostalCode)
	assert.Equal(t, "München", address.City)
}

func TestAddressCandidatePostalFallback(t *testing.T) {
	candidates := Candidates("Die Rechnung geht nach 80331 München")

	require.NotNil(t, candidates.Address)
	address := candidates.Address.Address
	require.NotNil(t, address)
	assert.Equal(t, "80331", address.PostalCode)
	// The city right after the postal code is picked up, with a note about
	// the incomplete match.
	assert.Equal(t, "München", address.City)
	assert.NotEmpty(t, candidates.Address.Notes)
}

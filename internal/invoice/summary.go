package invoice

import (
	"fmt"
	"math"
	"strings"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// BuildSummary renders the invoice as spoken German for the confirmation
// step. The invoice must already be priced; the summary only formats.
func BuildSummary(invoice *models.InvoiceContext) string {
	var sentences []string

	customerName := strings.TrimSpace(invoice.Customer.Name)
	opening := "Für den Kunden wurde die Leistung"
	if customerName != "" {
		opening = fmt.Sprintf("Für den Kunden %s wurde die Leistung", customerName)
	}
	service := strings.TrimSpace(invoice.Service.Description)
	if service == "" {
		service = "ohne Titel"
	}
	sentences = append(sentences, fmt.Sprintf("%s %q erfasst.", opening, service))

	for i, item := range invoice.Items {
		sentences = append(sentences, describeItem(i+1, item))
	}

	net := invoice.Amount.Net
	tax := invoice.Amount.Tax
	total := invoice.Amount.Total
	if total == 0 {
		total = net + tax
	}

	sentences = append(sentences, fmt.Sprintf("Die Zwischensumme netto beträgt %s.", formatMoney(net)))
	if tax != 0 {
		sentences = append(sentences, fmt.Sprintf("Die Umsatzsteuer liegt bei %s.", formatMoney(tax)))
	}
	sentences = append(sentences, fmt.Sprintf("Der Rechnungsbetrag brutto beläuft sich auf %s.", formatMoney(total)))

	return strings.Join(sentences, " ")
}

func describeItem(index int, item models.InvoiceItem) string {
	unit := item.Unit
	unitForQuantity := ""
	if unit != "" {
		unitForQuantity = " " + unit
	} else {
		unit = "Einheit"
	}
	role := ""
	if item.WorkerRole != "" {
		role = fmt.Sprintf(" (%s)", item.WorkerRole)
	}

	return fmt.Sprintf(
		"Position %d: %s%s umfasst %s%s zu %s je %s mit einem Netto-Betrag von %s.",
		index, item.Description, role,
		formatQuantity(item.Quantity), unitForQuantity,
		formatMoney(item.UnitPrice), unit,
		formatMoney(item.Total()),
	)
}

// formatQuantity prints whole quantities without decimals and everything else
// with a German decimal comma.
func formatQuantity(value float64) string {
	if math.Abs(value-math.Round(value)) < 1e-6 {
		return fmt.Sprintf("%d", int(math.Round(value)))
	}
	return strings.ReplaceAll(fmt.Sprintf("%.2f", value), ".", ",")
}

func formatMoney(value float64) string {
	return strings.ReplaceAll(fmt.Sprintf("%.2f", value), ".", ",") + " Euro"
}

package persistence

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// WriteInvoicePDF renders the invoice as a simple A4 PDF: header, customer
// and service block, a positions table and the totals.
func WriteInvoicePDF(inv *models.InvoiceContext, path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Rechnung", true)
	pdf.SetAuthor("Handwerker App", true)
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, translate("Rechnung"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	if inv.InvoiceNumber != "" {
		pdf.Cell(0, 6, translate(fmt.Sprintf("Rechnungsnummer: %s", inv.InvoiceNumber)))
		pdf.Ln(6)
	}
	if inv.IssueDate != "" {
		pdf.Cell(0, 6, translate(fmt.Sprintf("Datum: %s", inv.IssueDate)))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, translate(fmt.Sprintf("Kunde: %s", inv.Customer.Name)))
	pdf.Ln(6)
	if inv.Customer.Address != "" {
		pdf.Cell(0, 6, translate(fmt.Sprintf("Adresse: %s", inv.Customer.Address)))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, translate(fmt.Sprintf("Leistung: %s", inv.Service.Description)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(80, 7, translate("Beschreibung"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, translate("Menge"), "1", 0, "R", false, 0, "")
	pdf.CellFormat(20, 7, translate("Einheit"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, translate("Einzelpreis"), "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, translate("Gesamt"), "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, item := range inv.Items {
		pdf.CellFormat(80, 7, translate(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.2f", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 7, translate(item.Unit), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f EUR", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f EUR", item.Total()), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.Cell(0, 6, translate(fmt.Sprintf("Netto: %.2f EUR", inv.Amount.Net)))
	pdf.Ln(6)
	pdf.Cell(0, 6, translate(fmt.Sprintf("Umsatzsteuer: %.2f EUR", inv.Amount.Tax)))
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, translate(fmt.Sprintf("Gesamt: %.2f EUR", inv.Amount.Total)))

	return pdf.OutputFileAndClose(path)
}

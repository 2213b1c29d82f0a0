package persistence

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// WriteInvoiceWorkbook exports the invoice positions as an Excel sheet for
// hand-off into spreadsheet-based bookkeeping.
func WriteInvoiceWorkbook(inv *models.InvoiceContext, path string) error {
	workbook := excelize.NewFile()
	defer workbook.Close()

	const sheet = "Rechnung"
	index, err := workbook.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	workbook.SetActiveSheet(index)
	workbook.DeleteSheet("Sheet1")

	header := map[string]any{
		"A1": "Rechnungsnummer", "B1": inv.InvoiceNumber,
		"A2": "Datum", "B2": inv.IssueDate,
		"A3": "Kunde", "B3": inv.Customer.Name,
		"A4": "Leistung", "B4": inv.Service.Description,
	}
	for cell, value := range header {
		if err := workbook.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("write header cell %s: %w", cell, err)
		}
	}

	columns := []string{"Beschreibung", "Kategorie", "Menge", "Einheit", "Einzelpreis", "Gesamt"}
	for i, title := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 6)
		if err := workbook.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("write column header: %w", err)
		}
	}

	for row, item := range inv.Items {
		values := []any{item.Description, item.Category, item.Quantity, item.Unit, item.UnitPrice, item.Total()}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+7)
			if err := workbook.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write item cell: %w", err)
			}
		}
	}

	totalsRow := len(inv.Items) + 8
	totals := [][2]any{
		{"Netto", inv.Amount.Net},
		{"Umsatzsteuer", inv.Amount.Tax},
		{"Gesamt", inv.Amount.Total},
	}
	for i, pair := range totals {
		labelCell, _ := excelize.CoordinatesToCellName(1, totalsRow+i)
		valueCell, _ := excelize.CoordinatesToCellName(2, totalsRow+i)
		if err := workbook.SetCellValue(sheet, labelCell, pair[0]); err != nil {
			return fmt.Errorf("write totals label: %w", err)
		}
		if err := workbook.SetCellValue(sheet, valueCell, pair[1]); err != nil {
			return fmt.Errorf("write totals value: %w", err)
		}
	}

	return workbook.SaveAs(path)
}

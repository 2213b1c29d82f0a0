package persistence

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// xrechnungInvoice is a strongly simplified XRechnung shape. It is not fully
// EN 16931 conformant; it carries the data needed to build one.
type xrechnungInvoice struct {
	XMLName       xml.Name        `xml:"Invoice"`
	InvoiceNumber string          `xml:"InvoiceNumber"`
	IssueDate     string          `xml:"IssueDate"`
	Customer      xrechnungParty  `xml:"Customer"`
	Items         []xrechnungItem `xml:"Items>Item"`
	Amounts       xrechnungAmount `xml:"Amounts"`
}

type xrechnungParty struct {
	Name    string `xml:"Name"`
	Address string `xml:"Address,omitempty"`
}

type xrechnungItem struct {
	Description string `xml:"Description"`
	Quantity    string `xml:"Quantity"`
	Unit        string `xml:"Unit,omitempty"`
	UnitPrice   string `xml:"UnitPrice"`
}

type xrechnungAmount struct {
	Net   string `xml:"Net"`
	Tax   string `xml:"Tax"`
	Total string `xml:"Total"`
}

// WriteXRechnungXML writes the simplified XRechnung rendering of the invoice.
func WriteXRechnungXML(inv *models.InvoiceContext, path string) error {
	doc := xrechnungInvoice{
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate,
		Customer: xrechnungParty{
			Name:    inv.Customer.Name,
			Address: inv.Customer.Address,
		},
		Amounts: xrechnungAmount{
			Net:   fmt.Sprintf("%.2f", inv.Amount.Net),
			Tax:   fmt.Sprintf("%.2f", inv.Amount.Tax),
			Total: fmt.Sprintf("%.2f", inv.Amount.Total),
		},
	}
	for _, item := range inv.Items {
		doc.Items = append(doc.Items, xrechnungItem{
			Description: item.Description,
			Quantity:    fmt.Sprintf("%g", item.Quantity),
			Unit:        item.Unit,
			UnitPrice:   fmt.Sprintf("%.2f", item.UnitPrice),
		})
	}

	payload, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal XRechnung: %w", err)
	}
	return os.WriteFile(path, append([]byte(xml.Header), payload...), 0o644)
}

package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bfindeiss/handwerker-app/internal/extract"
	"github.com/bfindeiss/handwerker-app/internal/models"
)

// Correction commands are deterministic edits: they are applied directly to
// the session invoice and never go through the annotator, so they cannot be
// subject to extraction drift.
var (
	companyNamePattern = regexp.MustCompile(`(?i)speichere meinen firmennamen(?:\s+(?P<name>.+))?`)

	deleteItemPattern      = regexp.MustCompile(`(?i)position\s+(?P<pos>\d+)\s+(?:löschen|entfernen|streichen)`)
	itemHoursPattern       = regexp.MustCompile(`(?i)position\s+(?P<pos>\d+)\s+sind\s+(?P<value>\d+(?:[.,]\d+)?)\s+stunden`)
	itemQuantityPattern    = regexp.MustCompile(`(?i)position\s+(?P<pos>\d+)\s+(?:menge|anzahl)\s+(?P<value>\d+(?:[.,]\d+)?)`)
	itemPricePattern       = regexp.MustCompile(`(?i)position\s+(?P<pos>\d+)\s+(?:preis|kostet)\s+(?P<value>\d+(?:[.,]\d+)?)(?:\s*(?:€|euro|eur))?`)
	itemDescriptionPattern = regexp.MustCompile(`(?i)position\s+(?P<pos>\d+)\s+beschreibung\s+(?P<value>.+)`)
	customerIsPattern      = regexp.MustCompile(`(?i)\bkunde ist\s+(?P<value>.+)`)
	serviceIsPattern       = regexp.MustCompile(`(?i)\bleistung ist\s+(?P<value>.+)`)
)

// parseCompanyName recognizes the configuration command "Speichere meinen
// Firmennamen <Name>". The second return reports whether the command itself
// matched, even with an empty name.
func parseCompanyName(text string) (string, bool) {
	match := companyNamePattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(match[1], ".")), true
}

// applyCorrections applies every recognized correction command in the text to
// the invoice. It returns the spoken feedback lines and whether anything
// changed; a change requires re-pricing by the caller.
func applyCorrections(invoice *models.InvoiceContext, text string) ([]string, bool) {
	var feedback []string
	changed := false

	if match := deleteItemPattern.FindStringSubmatch(text); match != nil {
		index, ok := itemIndex(invoice, match[1])
		if ok {
			description := invoice.Items[index].Description
			invoice.Items = append(invoice.Items[:index], invoice.Items[index+1:]...)
			feedback = append(feedback, fmt.Sprintf("Position %s (%s) gelöscht.", match[1], description))
			changed = true
		} else {
			feedback = append(feedback, fmt.Sprintf("Position %s nicht gefunden.", match[1]))
		}
	}

	for _, match := range itemHoursPattern.FindAllStringSubmatch(text, -1) {
		if index, ok := itemIndex(invoice, match[1]); ok {
			if hours, err := extract.NormalizeNumber(match[2]); err == nil {
				invoice.Items[index].Quantity = hours
				invoice.Items[index].Unit = "h"
				feedback = append(feedback, fmt.Sprintf("Position %s auf %s Stunden gesetzt.", match[1], match[2]))
				changed = true
			}
		} else {
			feedback = append(feedback, fmt.Sprintf("Position %s nicht gefunden.", match[1]))
		}
	}

	for _, match := range itemQuantityPattern.FindAllStringSubmatch(text, -1) {
		if index, ok := itemIndex(invoice, match[1]); ok {
			if quantity, err := extract.NormalizeNumber(match[2]); err == nil {
				invoice.Items[index].Quantity = quantity
				feedback = append(feedback, fmt.Sprintf("Menge von Position %s auf %s gesetzt.", match[1], match[2]))
				changed = true
			}
		} else {
			feedback = append(feedback, fmt.Sprintf("Position %s nicht gefunden.", match[1]))
		}
	}

	for _, match := range itemPricePattern.FindAllStringSubmatch(text, -1) {
		if index, ok := itemIndex(invoice, match[1]); ok {
			if price, err := extract.NormalizeNumber(match[2]); err == nil {
				invoice.Items[index].UnitPrice = price
				feedback = append(feedback, fmt.Sprintf("Preis von Position %s auf %s Euro gesetzt.", match[1], match[2]))
				changed = true
			}
		} else {
			feedback = append(feedback, fmt.Sprintf("Position %s nicht gefunden.", match[1]))
		}
	}

	if match := itemDescriptionPattern.FindStringSubmatch(text); match != nil {
		if index, ok := itemIndex(invoice, match[1]); ok {
			description := strings.TrimSpace(strings.Trim(match[2], "."))
			invoice.Items[index].Description = description
			feedback = append(feedback, fmt.Sprintf("Beschreibung von Position %s auf %q gesetzt.", match[1], description))
			changed = true
		} else {
			feedback = append(feedback, fmt.Sprintf("Position %s nicht gefunden.", match[1]))
		}
	}

	if match := customerIsPattern.FindStringSubmatch(text); match != nil {
		name := strings.TrimSpace(strings.Trim(match[1], "."))
		if name != "" {
			invoice.Customer.Name = name
			feedback = append(feedback, fmt.Sprintf("Kunde auf %s gesetzt.", name))
			changed = true
		}
	}

	if match := serviceIsPattern.FindStringSubmatch(text); match != nil {
		description := strings.TrimSpace(strings.Trim(match[1], "."))
		if description != "" {
			invoice.Service.Description = description
			feedback = append(feedback, fmt.Sprintf("Leistung auf %q gesetzt.", description))
			changed = true
		}
	}

	return feedback, changed
}

// itemIndex maps a spoken 1-based position number to an item slice index.
func itemIndex(invoice *models.InvoiceContext, position string) (int, bool) {
	number, err := strconv.Atoi(position)
	if err != nil || number < 1 || number > len(invoice.Items) {
		return 0, false
	}
	return number - 1, true
}

package models

import (
	"regexp"
	"strings"
)

// Address is the structured customer address. It is a value type; callers
// copy it instead of sharing pointers.
type Address struct {
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
}

// IsZero returns true if no address component is set.
func (a Address) IsZero() bool {
	return a.Street == "" && a.PostalCode == "" && a.City == ""
}

var addressInPattern = regexp.MustCompile(`^(?P<street>.+?)\s+in\s+(?P<zip>\d{5})\s+(?P<city>.+)$`)

// NormalizeAddress rewrites "<Straße> in <PLZ> <Ort>" as "<Straße>, <PLZ> <Ort>".
// Any other shape is returned unchanged.
func NormalizeAddress(address string) string {
	m := addressInPattern.FindStringSubmatch(strings.TrimSpace(address))
	if m == nil {
		return address
	}
	return strings.TrimSpace(m[1]) + ", " + m[2] + " " + strings.TrimSpace(m[3])
}

// FormatAddress renders an address as "<street>, <postal> <city>" or a
// best-effort partial when components are missing.
func FormatAddress(address *Address) string {
	if address == nil {
		return ""
	}
	street := strings.TrimSpace(address.Street)
	cityParts := make([]string, 0, 2)
	if address.PostalCode != "" {
		cityParts = append(cityParts, address.PostalCode)
	}
	if address.City != "" {
		cityParts = append(cityParts, address.City)
	}
	city := strings.TrimSpace(strings.Join(cityParts, " "))
	if street != "" && city != "" {
		return street + ", " + city
	}
	if street != "" {
		return street
	}
	return city
}

// Customer holds extracted customer data.
type Customer struct {
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// placeholderNames are names LLMs hallucinate when no customer was mentioned.
// They must never end up on an invoice.
var placeholderNames = map[string]bool{
	"john doe":       true,
	"jane doe":       true,
	"max mustermann": true,
	"erika mustermann": true,
	"kunde":          true,
	"unbekannt":      true,
}

// IsPlaceholderName reports whether a customer name is a known LLM default.
func IsPlaceholderName(name string) bool {
	return placeholderNames[strings.ToLower(strings.TrimSpace(name))]
}

// IsUserProvidedName reports whether a customer name can be trusted: it must
// not be a denylisted default and, when a transcript is available, has to
// appear literally in it. LLM guesses that fail either check are discarded.
func IsUserProvidedName(name, transcript string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || IsPlaceholderName(trimmed) {
		return false
	}
	if transcript == "" {
		return true
	}
	return strings.Contains(strings.ToLower(transcript), strings.ToLower(trimmed))
}

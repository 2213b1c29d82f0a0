// Package extract mines deterministic candidate facts out of raw transcript
// text: material positions, labor hours per role, travel distances and the
// customer address. The candidates feed the LLM reconciliation passes as
// primary evidence and double as a fallback when the LLM under-reports.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bfindeiss/handwerker-app/internal/models"
)

// materialPatterns are tried in order; a successful match claims its
// character span and later overlapping matches are discarded
// (first-pattern-wins, finditer order within one pattern).
var materialPatterns = []*regexp.Regexp{
	// "2 Fenster je 200€"
	regexp.MustCompile(`(?i)(?P<qty>\d+(?:[.,]\d+)?)\s*(?:x|×)?\s+(?P<desc>[A-Za-zÄÖÜäöüß.\- ]{2,40})\s+je\s+(?P<price>\d+(?:[.,]\d+)?\s*(?:€|eur|euro))`),
	// "Fenster 2 x 200€"
	regexp.MustCompile(`(?i)(?P<desc>[A-Za-zÄÖÜäöüß.\- ]{2,40})\s+(?P<qty>\d+(?:[.,]\d+)?)\s*(?:x|×)\s*(?P<price>\d+(?:[.,]\d+)?\s*(?:€|eur|euro))`),
	// "200€ pro Fenster"
	regexp.MustCompile(`(?i)(?P<price>\d+(?:[.,]\d+)?\s*(?:€|eur|euro))\s*(?:pro|je)\s+(?P<desc>[A-Za-zÄÖÜäöüß.\- ]{2,40})`),
	// "Fenster 200€ je"
	regexp.MustCompile(`(?i)(?P<desc>[A-Za-zÄÖÜäöüß.\- ]{2,40})\s+(?P<price>\d+(?:[.,]\d+)?\s*(?:€|eur|euro))\s*(?:pro|je)`),
}

var (
	kmPattern = regexp.MustCompile(`(?i)(?P<km>\d+(?:[.,]\d+)?)\s*(?:km|kilometer|kilometern)\b`)
	// Street and city anchor on capitalized tokens so surrounding sentence
	// words are not swallowed into the address.
	addressPattern = regexp.MustCompile(`(?P<street>[A-ZÄÖÜ][A-Za-zÄÖÜäöüß.\-]*(?:\s+[A-ZÄÖÜ][A-Za-zÄÖÜäöüß.\-]*)*\s+\d+[a-z]?)\s*(?:,|\s+in)?\s*(?P<postal>\d{5})\s+(?P<city>[A-ZÄÖÜ][A-Za-zÄÖÜäöüß.\-]+)`)
	postalPattern  = regexp.MustCompile(`\b(\d{5})\b`)
	hoursHintPattern = regexp.MustCompile(`(?i)stunden|std| h\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

var roleTokens = map[string]string{
	models.RoleMeister: `meister`,
	models.RoleGeselle: `gesell(?:e|en)?`,
}

// span is a claimed character range in the source text.
type span struct {
	start, end int
}

func (s span) overlaps(other span) bool {
	return s.start < other.end && other.start < s.end
}

func cleanDescription(desc string) string {
	return whitespacePattern.ReplaceAllString(strings.Trim(desc, " ,.-"), " ")
}

// Candidates runs all deterministic extractors over the text.
func Candidates(text string) models.Candidates {
	materials, usedSpans := materialCandidates(text)
	materials = append(materials, moneyCandidates(text, usedSpans)...)
	return models.Candidates{
		Materials: materials,
		Travel:    travelCandidates(text),
		Labor:     LaborHours(text),
		Address:   validateAddressCandidate(addressCandidate(text), text),
	}
}

func materialCandidates(text string) ([]models.MaterialCandidate, []span) {
	var candidates []models.MaterialCandidate
	var usedSpans []span
	for _, pattern := range materialPatterns {
		names := pattern.SubexpNames()
		for _, match := range pattern.FindAllStringSubmatchIndex(text, -1) {
			s := span{match[0], match[1]}
			if overlapsAny(s, usedSpans) {
				continue
			}
			usedSpans = append(usedSpans, s)

			groups := submatchMap(text, names, match)
			candidate := models.MaterialCandidate{
				SourceText: text[s.start:s.end],
			}
			if desc := cleanDescription(groups["desc"]); desc != "" {
				candidate.Description = desc
			}
			if qty := groups["qty"]; qty != "" {
				if quantity, err := NormalizeNumber(qty); err == nil {
					candidate.Quantity = &quantity
					candidate.Unit = "Stk"
				}
			}
			if cents, err := ParseMoneyToCents(groups["price"]); err == nil {
				candidate.UnitPriceCents = &cents
			}
			candidates = append(candidates, candidate)
		}
	}
	return candidates, usedSpans
}

// moneyCandidates turns bare money mentions that no material pattern claimed
// into candidates with only a total price, flagged for the LLM.
func moneyCandidates(text string, usedSpans []span) []models.MaterialCandidate {
	var candidates []models.MaterialCandidate
	for _, match := range moneyPattern.FindAllStringIndex(text, -1) {
		s := span{match[0], match[1]}
		if overlapsAny(s, usedSpans) {
			continue
		}
		usedSpans = append(usedSpans, s)
		source := text[s.start:s.end]
		cents, err := ParseMoneyToCents(source)
		if err != nil {
			continue
		}
		candidates = append(candidates, models.MaterialCandidate{
			TotalPriceCents: &cents,
			SourceText:      source,
			Notes:           []string{"Betrag ohne explizite Menge erkannt"},
		})
	}
	return candidates
}

func travelCandidates(text string) []models.TravelCandidate {
	var candidates []models.TravelCandidate
	for _, match := range kmPattern.FindAllStringSubmatch(text, -1) {
		km, err := NormalizeNumber(match[1])
		if err != nil {
			continue
		}
		candidates = append(candidates, models.TravelCandidate{
			Kilometers:  km,
			Description: "Anfahrt",
			SourceText:  match[0],
		})
	}
	return candidates
}

func rolePatterns(role string) []*regexp.Regexp {
	token := roleTokens[role]
	return []*regexp.Regexp{
		// "3 Stunden Geselle"
		regexp.MustCompile(`(?i)(?P<num>\d+(?:[.,]\d+)?)\s*(?:h|std|stunden?)\s*(?:` + token + `)`),
		// "Geselle 3 Stunden" / "Gesellenstunden 3"
		regexp.MustCompile(`(?i)(?:` + token + `)(?:\s*(?:stunden?|h|std))?\s*(?P<num>\d+(?:[.,]\d+)?)`),
	}
}

func hoursForRole(text, role string) (*float64, []string) {
	var notes []string
	var values []float64
	for _, pattern := range rolePatterns(role) {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if value, err := NormalizeNumber(match[1]); err == nil {
				values = append(values, value)
			}
		}
	}
	if len(values) == 0 {
		if regexp.MustCompile(`(?i)` + role).MatchString(text) {
			notes = append(notes, fmt.Sprintf("%s erwähnt, aber keine Stunden erkannt", role))
		}
		return nil, notes
	}
	if len(values) > 1 {
		notes = append(notes, fmt.Sprintf("Mehrere %s-Stunden erkannt, nehme den ersten Wert", role))
	}
	return &values[0], notes
}

// LaborHours extracts meister and geselle hours from text. Each role is
// matched independently with both directional shapes; the first chronological
// value wins and ambiguities are reported as notes, never fixed silently.
func LaborHours(text string) models.LaborCandidate {
	meister, meisterNotes := hoursForRole(text, models.RoleMeister)
	geselle, geselleNotes := hoursForRole(text, models.RoleGeselle)
	notes := append(meisterNotes, geselleNotes...)
	if meister == nil && geselle == nil && hoursHintPattern.MatchString(text) {
		notes = append(notes, "Stunden erwähnt, aber keine Rolle erkannt")
	}
	return models.LaborCandidate{MeisterHours: meister, GeselleHours: geselle, Notes: notes}
}

func addressCandidate(text string) *models.AddressCandidate {
	match := addressPattern.FindStringSubmatch(text)
	if match == nil {
		postal := postalPattern.FindStringSubmatch(text)
		if postal == nil {
			return nil
		}
		return &models.AddressCandidate{
			Address: &models.Address{PostalCode: postal[1]},
			Notes:   []string{"PLZ erkannt, aber Straße/Ort fehlt"},
		}
	}
	street := cleanDescription(match[1])
	postal := match[2]
	city := cleanDescription(match[3])
	var notes []string
	for _, other := range addressPattern.FindAllStringSubmatch(text, -1) {
		if cleanDescription(other[3]) != city {
			notes = append(notes, "Mehrere Ortsangaben erkannt; mögliche Widersprüche prüfen")
			break
		}
	}
	return &models.AddressCandidate{
		Address: &models.Address{Street: street, PostalCode: postal, City: city},
		Notes:   notes,
	}
}

// validateAddressCandidate fills a missing city from the text right after the
// postal code, or a missing postal code from anywhere in the text. Every fix
// produces an explanatory note; nothing is repaired silently.
func validateAddressCandidate(candidate *models.AddressCandidate, text string) *models.AddressCandidate {
	if candidate == nil {
		return nil
	}
	address := models.Address{}
	if candidate.Address != nil {
		address = *candidate.Address
	}
	notes := append([]string{}, candidate.Notes...)
	if address.PostalCode != "" && address.City == "" {
		afterPostal := regexp.MustCompile(address.PostalCode + `\s+(?P<city>[A-Za-zÄÖÜäöüß.\-]+)`)
		if m := afterPostal.FindStringSubmatch(text); m != nil {
			address.City = m[1]
		} else {
			notes = append(notes, "PLZ erkannt, aber Ort fehlt")
		}
	}
	if address.City != "" && address.PostalCode == "" {
		if m := postalPattern.FindStringSubmatch(text); m != nil {
			address.PostalCode = m[1]
			notes = append(notes, "PLZ aus Kontext ergänzt")
		}
	}
	return &models.AddressCandidate{
		CustomerName: candidate.CustomerName,
		Address:      &address,
		Notes:        notes,
	}
}

func overlapsAny(s span, spans []span) bool {
	for _, existing := range spans {
		if s.overlaps(existing) {
			return true
		}
	}
	return false
}

func submatchMap(text string, names []string, match []int) map[string]string {
	groups := make(map[string]string, len(names))
	for i, name := range names {
		if name == "" || 2*i >= len(match) || match[2*i] < 0 {
			continue
		}
		groups[name] = text[match[2*i]:match[2*i+1]]
	}
	return groups
}

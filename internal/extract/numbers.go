package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// moneyPattern matches European money mentions like "175,50 €", "500 EUR" or
// "1.200 Euro". The integer part may use "." or spaces as thousands grouping.
var moneyPattern = regexp.MustCompile(
	`(?i)(\d{1,3}(?:[.\s]\d{3})*|\d+)(?:[.,](\d{1,2}))?\s*(?:€|eur|euro)`)

// ErrNoMoney is returned when a string contains no recognizable money mention.
var ErrNoMoney = errors.New("no money found")

var dotGroupingPattern = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)

// NormalizeNumber parses a number in European convention: comma as decimal
// separator, "." or spaces as optional thousands grouping. A bare dot is
// only treated as grouping when the digits fall into groups of three.
func NormalizeNumber(value string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	switch {
	case strings.Contains(normalized, ","):
		normalized = strings.ReplaceAll(normalized, ".", "")
		normalized = strings.ReplaceAll(normalized, ",", ".")
	case dotGroupingPattern.MatchString(normalized):
		normalized = strings.ReplaceAll(normalized, ".", "")
	}
	return strconv.ParseFloat(normalized, 64)
}

// ParseMoneyToCents folds a money mention into minor currency units:
// "500,00 €", "500€" and "500.00 EUR" all become 50000. The decimal part is
// right-padded to two digits before conversion.
func ParseMoneyToCents(value string) (int64, error) {
	m := moneyPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, ErrNoMoney
	}
	amount := strings.ReplaceAll(m[1], " ", "")
	amount = strings.ReplaceAll(amount, ".", "")
	dec := m[2]
	if dec == "" {
		dec = "0"
	}
	for len(dec) < 2 {
		dec += "0"
	}
	dec = dec[:2]
	whole, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return 0, err
	}
	fraction, err := strconv.ParseInt(dec, 10, 64)
	if err != nil {
		return 0, err
	}
	return whole*100 + fraction, nil
}

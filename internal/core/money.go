// Package core provides money parsing and percentage helpers.
//
// Amounts are exact decimals. Client-facing expense and income amounts use the
// pt-BR convention: "." groups thousands and "," separates the decimals.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseLocaleAmount parses a pt-BR formatted amount such as "1.234,56".
//
// An optional "R$" prefix and surrounding spaces are ignored. "." separates
// thousands and must be followed by exactly three digits; a single "," is the
// decimal separator. So "1.500,00" and "1500" are both 1500, while "1.2.3" is
// rejected. A leading "-" is accepted; callers decide whether negative values
// are valid.
//
// Examples:
//
//	ParseLocaleAmount("1.234,56") -> 1234.56
//	ParseLocaleAmount("R$ 10,5")  -> 10.5
//	ParseLocaleAmount("12")       -> 12
func ParseLocaleAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if strings.Count(s, ",") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	intPart, fracPart, hasComma := strings.Cut(s, ",")
	if intPart == "" && fracPart == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if hasComma && fracPart == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	intPart, ok := ungroup(intPart)
	if !ok {
		return decimal.Zero, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	norm := intPart
	if fracPart != "" {
		norm += "." + fracPart
	}
	d, err := decimal.NewFromString(norm)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// ungroup removes "." thousands separators. The leading group holds one to
// three digits and every following group exactly three.
func ungroup(s string) (string, bool) {
	if !strings.Contains(s, ".") {
		return s, true
	}
	groups := strings.Split(s, ".")
	if n := len(groups[0]); n == 0 || n > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

// FormatLocaleAmount renders d with two decimals in pt-BR form ("1.234,56").
func FormatLocaleAmount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() && !d.Round(2).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// Percent returns part*100/total rounded to two decimal places.
// The caller guarantees total is not zero.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	return part.Mul(hundred).Div(total).Round(2)
}

// FormatPercent renders a percentage with exactly two decimals ("25.00").
func FormatPercent(p decimal.Decimal) string {
	return p.StringFixed(2)
}

// Package convert normalizes the locale-quirky numeric strings seen in
// incoming trade payloads and in ledger cells.
package convert

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders v as a comma-decimal string ("1234,50") for the ledger.
// Numeric strings may use "." or the mistaken ":" as decimal separator.
// Empty input yields "", unparseable input is returned trimmed.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		d, ok := parseDecimal(s)
		if !ok {
			return s
		}
		return commaString(d)
	case float64:
		return commaString(decimal.NewFromFloat(t))
	case float32:
		return commaString(decimal.NewFromFloat32(t))
	case int:
		return commaString(decimal.NewFromInt(int64(t)))
	case int64:
		return commaString(decimal.NewFromInt(t))
	default:
		return ""
	}
}

// Parse is the inverse of Format: best-effort numeric parsing that never
// fails upward. Malformed input degrades to 0 so a bad cell cannot abort a
// whole ledger scan.
func Parse(s string) float64 {
	d, ok := parseDecimal(s)
	if !ok {
		return 0
	}
	f, _ := d.Float64()
	return f
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	if strings.Contains(s, ",") {
		// "." is a thousands separator whenever a comma is present.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	s = strings.ReplaceAll(s, ":", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// commaString keeps full precision but pads to two decimal places so
// balances render as "1234,50" rather than "1234,5".
func commaString(d decimal.Decimal) string {
	var s string
	if d.Exponent() >= -2 {
		s = d.StringFixed(2)
	} else {
		s = d.String()
	}
	return strings.Replace(s, ".", ",", 1)
}

// Package symbol classifies trading instruments for balance routing.
package symbol

import "strings"

var coinMarkers = []string{"btc", "eth"}

// fiatCodes are the currency codes that may legitimately pair with USD in a
// forex symbol. A pair like "eurusd" contains the generic usd marker but is
// not a crypto instrument.
var fiatCodes = map[string]bool{
	"eur": true, "gbp": true, "jpy": true, "chf": true,
	"aud": true, "nzd": true, "cad": true, "sek": true, "nok": true,
}

// IsCrypto reports whether the instrument routes to the crypto balance
// column. Coin markers match anywhere in the symbol; the generic "usd"
// marker counts unless the rest of the symbol is a fiat code (eurusd,
// usdjpy and friends stay on the fiat column).
func IsCrypto(sym string) bool {
	s := Normalize(sym)
	if s == "" {
		return false
	}
	for _, marker := range coinMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	if idx := strings.Index(s, "usd"); idx >= 0 {
		rest := strings.Trim(s[:idx]+s[idx+3:], "t ") // usdt/usdc quote suffixes
		rest = strings.TrimSuffix(rest, "c")
		if rest == "" {
			return true
		}
		return !fiatCodes[rest]
	}
	return false
}

// Normalize lower-cases and trims a symbol the way it is stored in the
// ledger's symbol column.
func Normalize(sym string) string {
	return strings.ToLower(strings.TrimSpace(sym))
}

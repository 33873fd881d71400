package extractor

import (
	"regexp"
	"strings"
)

// currencyCodes are the ISO codes recognized next to an amount, besides "$"
var currencyCodes = []string{"AED", "USD", "SAR", "QAR", "OMR", "KWD", "BHD", "EGP"}

var (
	amountPattern = `\d(?:[\d.,]*\d)?`
	codePattern   = strings.Join(currencyCodes, "|")

	// currency before amount: "AED 1,299.00", "$49"
	currencyFirstRegex = regexp.MustCompile(`(?i)(?:\b(?:` + codePattern + `)|\$)\s?` + amountPattern)

	// amount before currency: "1,299.00 AED"
	amountFirstRegex = regexp.MustCompile(`(?i)\b` + amountPattern + `\s?(?:` + codePattern + `)\b`)
)

// FindPrice returns the first currency/amount token in text, trying
// currency-before-amount first. It returns "" when nothing matches.
func FindPrice(text string) string {
	if m := currencyFirstRegex.FindString(text); m != "" {
		return m
	}
	return amountFirstRegex.FindString(text)
}

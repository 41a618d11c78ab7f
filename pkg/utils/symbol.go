package utils

import (
	"strings"
)

// Share-class separators seen in different sources for the same listing,
// e.g. "BRK.B" (index providers) and "BRK-B" (Yahoo Finance).
var classSeparators = strings.NewReplacer("/", ".", "-", ".")

// NormalizeUserID returns the canonical form of a user identifier.
// Identifiers are opaque strings; only surrounding whitespace is removed
// so that "7", " 7" and "7 " resolve to the same user.
func NormalizeUserID(id string) string {
	return strings.TrimSpace(id)
}

// NormalizeSymbol normalizes a user-input ticker symbol to the canonical
// upper-case form used by the reference table.
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Remove $ prefix if present (common in chat)
	symbol = strings.TrimPrefix(symbol, "$")

	return classSeparators.Replace(symbol)
}

// ToYahooSymbol converts a canonical symbol to Yahoo Finance format,
// which uses a dash for share classes ("BRK.B" -> "BRK-B").
func ToYahooSymbol(symbol string) string {
	return strings.ReplaceAll(NormalizeSymbol(symbol), ".", "-")
}

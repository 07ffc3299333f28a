package ir

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// CleanAddress trims an address and collapses internal whitespace.
// The result is what reports display.
func CleanAddress(address string) string {
	return strings.Join(strings.Fields(norm.NFC.String(address)), " ")
}

// AddressKey is the lookup key for an address: NFC-normalized, case-folded,
// punctuation removed and whitespace collapsed. Two spellings of the same
// address that differ only in those respects share a key.
func AddressKey(address string) string {
	folded := cases.Fold().String(norm.NFC.String(address))
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(stripped), " ")
}

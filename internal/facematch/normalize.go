package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeEmployeeName returns the key two names must share to be treated as
// the same employee: no diacritics, lowercase, single spaces.
func NormalizeEmployeeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	return strings.Join(strings.Fields(name), " ")
}

// CleanDisplayName trims and collapses whitespace while keeping the original
// spelling for display.
func CleanDisplayName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Package textnorm canonicalizes extracted invoice text into forms that label
// searches and provider signatures can be matched against.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reUnsafe = regexp.MustCompile(`[^a-zA-Z0-9 .,/\\-]`)

// StripDiacritics removes combining marks after canonical decomposition,
// so "Fizetendő összeg" becomes "Fizetendo osszeg".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CollapseWhitespace turns every whitespace run (NBSP and newlines included)
// into a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SafeCharset replaces everything outside [a-zA-Z0-9 .,/\-] with a space.
func SafeCharset(s string) string {
	return reUnsafe.ReplaceAllString(s, " ")
}

// Fold is the plain label-search form: diacritics stripped, restricted to the
// safe charset, whitespace collapsed, lowercased. Fold(Fold(s)) == Fold(s).
func Fold(s string) string {
	return strings.ToLower(CollapseWhitespace(SafeCharset(StripDiacritics(s))))
}

// ASCIIOnly keeps printable ASCII and blanks everything else, newlines included.
// The encoded-pattern fallback of the label extractor runs on this form.
func ASCIIOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x20 && r <= 0x7e {
			return r
		}
		return ' '
	}, s)
}

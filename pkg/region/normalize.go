package region

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Hierarchy markers used by the federal statistics exports:
// "- Zürich" (canton), ">> Bezirk Affoltern" (district), "......Aeugst am Albis" (municipality).
var (
	leadingMarker = regexp.MustCompile(`^(-\s*|>+\s*)`)
	leadingDots   = regexp.MustCompile(`^\.*`)
)

// StripAccents removes diacritical marks (e.g. GENÈVE -> GENEVE, Graubünden -> Graubunden).
func StripAccents(s string) string {
	result, _, _ := transform.String(stripAccents, s)
	return result
}

// CleanLabel strips the leading hierarchy marker of a raw area label and
// collapses internal whitespace. Case is preserved.
func CleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = leadingMarker.ReplaceAllString(s, "")
	s = leadingDots.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// JoinKey is the comparison form of a name: cleaned and uppercased.
func JoinKey(s string) string {
	return strings.ToUpper(CleanLabel(s))
}

// FoldKey is JoinKey with accents removed.
func FoldKey(s string) string {
	return StripAccents(JoinKey(s))
}

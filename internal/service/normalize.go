package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Ligatures survive NFD decomposition, so they are folded up front.
var ligatures = strings.NewReplacer("œ", "oe", "æ", "ae")

// Filler words that carry no product identity; mostly French since that is
// what supplier invoices arrive in.
var stopWords = map[string]struct{}{
	"de": {}, "du": {}, "des": {}, "le": {}, "la": {}, "les": {},
	"un": {}, "une": {}, "au": {}, "aux": {}, "et": {}, "en": {},
	"d": {}, "l": {}, "the": {}, "of": {}, "and": {},
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName produces the comparison key shared by every matching
// component: lower-cased, accents and ligatures folded, punctuation stripped,
// stop words removed.
func NormalizeName(name string) string {
	s := ligatures.Replace(strings.ToLower(strings.TrimSpace(name)))
	if folded, _, err := transform.String(accentFolder, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; !stop {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// NameTokens returns the significant tokens of a name for overlap scoring:
// normalized tokens longer than two characters.
func NameTokens(name string) []string {
	var tokens []string
	for _, t := range strings.Fields(NormalizeName(name)) {
		if len(t) > 2 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

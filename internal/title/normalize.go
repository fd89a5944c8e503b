package title

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes accented characters and strips combining marks
// so "Pokémon" and "Pokemon" normalize to the same key.
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	articleCommaPattern   = regexp.MustCompile(`,\s*(the|a|an)\b\s*`)
	leadingArticlePattern = regexp.MustCompile(`^(the|a|an)\s+`)
)

// romanNumerals maps standalone Roman-numeral words I through X to Arabic so
// "Game II" and "Game 2" group together.
var romanNumerals = map[string]string{
	"i": "1", "ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9", "x": "10",
}

// Normalize canonicalizes a base title for grouping. It is pure and
// idempotent: lowercase, fold diacritics, drop articles and punctuation,
// collapse whitespace, and convert standalone Roman numerals to Arabic.
func Normalize(title string) string {
	folded, _, err := transform.String(foldTransformer, title)
	if err != nil {
		folded = title
	}
	normalized := strings.ToLower(folded)

	// "Legend of Zelda, The" style naming puts the article last.
	normalized = articleCommaPattern.ReplaceAllString(normalized, " ")
	normalized = leadingArticlePattern.ReplaceAllString(normalized, "")

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	words := strings.Fields(b.String())
	for i, word := range words {
		if arabic, ok := romanNumerals[word]; ok {
			words[i] = arabic
		}
	}
	return strings.Join(words, " ")
}

// Package textstats computes corpus-level text metrics over system
// responses: BLEU against reference responses and lexical richness
// statistics.
package textstats

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+(?:'[a-z]+)?|[^\sa-z0-9]`)

// Tokenize lowercases text and splits it into word and punctuation tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

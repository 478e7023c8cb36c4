package textstats

import (
	"math"
	"sort"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
)

// msttrWindow is the segment length for the mean segmental type-token
// ratio.
const msttrWindow = 50

// RichnessReport holds lexical richness statistics over all responses.
type RichnessReport struct {
	// Entropy is the unigram Shannon entropy in bits.
	Entropy float64 `json:"entropy"`
	// CondEntropy is the conditional bigram entropy in bits.
	CondEntropy float64 `json:"cond_entropy"`
	// AvgLengths is the mean number of tokens per turn.
	AvgLengths float64 `json:"avg_lengths"`
	// MSTTR is the mean segmental type-token ratio over 50-token windows.
	MSTTR float64 `json:"msttr"`

	NumUnigrams int `json:"num_unigrams"`
	NumBigrams  int `json:"num_bigrams"`
	NumTrigrams int `json:"num_trigrams"`
}

// Richness computes lexical richness statistics over every response of the
// corpus. Dialogues are visited in sorted id order so segment boundaries
// (and therefore MSTTR) are deterministic.
func Richness(c corpus.Corpus) *RichnessReport {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	unigrams := make(map[string]int)
	bigrams := make(map[[2]string]int)
	trigrams := make(map[[3]string]int)
	var allTokens []string
	var tokenTotal, turnCount int

	for _, id := range ids {
		for _, turn := range c[id] {
			tokens := Tokenize(turn.Response)
			allTokens = append(allTokens, tokens...)
			tokenTotal += len(tokens)
			turnCount++

			for i, tok := range tokens {
				unigrams[tok]++
				if i+1 < len(tokens) {
					bigrams[[2]string{tok, tokens[i+1]}]++
				}
				if i+2 < len(tokens) {
					trigrams[[3]string{tok, tokens[i+1], tokens[i+2]}]++
				}
			}
		}
	}

	report := &RichnessReport{
		NumUnigrams: len(unigrams),
		NumBigrams:  len(bigrams),
		NumTrigrams: len(trigrams),
	}
	if turnCount == 0 {
		return report
	}
	report.AvgLengths = float64(tokenTotal) / float64(turnCount)
	report.MSTTR = msttr(allTokens)

	total := 0
	for _, n := range unigrams {
		total += n
	}
	for _, n := range unigrams {
		p := float64(n) / float64(total)
		report.Entropy -= p * math.Log2(p)
	}
	for gram, n := range bigrams {
		conditional := float64(n) / float64(unigrams[gram[0]])
		joint := float64(n) / float64(total)
		report.CondEntropy -= joint * math.Log2(conditional)
	}
	return report
}

// msttr averages the type-token ratio over consecutive complete windows of
// msttrWindow tokens. Shorter corpora fall back to a single-window ratio.
func msttr(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	if len(tokens) < msttrWindow {
		return typeTokenRatio(tokens)
	}
	var sum float64
	var windows int
	for start := 0; start+msttrWindow <= len(tokens); start += msttrWindow {
		sum += typeTokenRatio(tokens[start : start+msttrWindow])
		windows++
	}
	return sum / float64(windows)
}

func typeTokenRatio(tokens []string) float64 {
	types := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		types[tok] = struct{}{}
	}
	return float64(len(types)) / float64(len(tokens))
}

package textstats

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
)

const bleuOrder = 4

// BLEU computes corpus BLEU between the input responses and each reference
// system, keyed by system name. Hypotheses and references are aligned by
// dialogue id and turn index; dialogues absent from a reference system are
// skipped with a warning.
func BLEU(c corpus.Corpus, references map[string]map[string][]string) map[string]float64 {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	scores := make(map[string]float64, len(references))
	for system, refDialogues := range references {
		var hyps, refs []string
		for _, id := range ids {
			refTurns, ok := refDialogues[id]
			if !ok {
				slog.Warn("bleu: dialogue missing from references, skipping", "system", system, "dialogue", id)
				continue
			}
			turns := c[id]
			if len(turns) != len(refTurns) {
				slog.Warn("bleu: turn count mismatch, scoring overlapping prefix",
					"system", system, "dialogue", id,
					"hypothesis_turns", len(turns), "reference_turns", len(refTurns))
			}
			n := min(len(turns), len(refTurns))
			for i := 0; i < n; i++ {
				hyps = append(hyps, turns[i].Response)
				refs = append(refs, refTurns[i])
			}
		}
		scores[system] = CorpusBLEU(hyps, refs)
	}
	return scores
}

// CorpusBLEU is BLEU-4 with uniform weights, exponential smoothing for
// zero n-gram matches and the standard brevity penalty, on a 0-100 scale.
func CorpusBLEU(hypotheses, references []string) float64 {
	if len(hypotheses) != len(references) || len(hypotheses) == 0 {
		return 0
	}

	var matches, totals [bleuOrder]int
	var hypLen, refLen int

	for i := range hypotheses {
		hyp := Tokenize(hypotheses[i])
		ref := Tokenize(references[i])
		hypLen += len(hyp)
		refLen += len(ref)

		for n := 1; n <= bleuOrder; n++ {
			hypGrams := ngramCounts(hyp, n)
			refGrams := ngramCounts(ref, n)
			for gram, count := range hypGrams {
				totals[n-1] += count
				if refCount, ok := refGrams[gram]; ok {
					matches[n-1] += min(count, refCount)
				}
			}
		}
	}

	if totals[0] == 0 {
		return 0
	}

	logSum := 0.0
	smooth := 1.0
	for n := 0; n < bleuOrder; n++ {
		if totals[n] == 0 {
			return 0
		}
		var precision float64
		if matches[n] == 0 {
			smooth *= 2
			precision = 1 / (smooth * float64(totals[n]))
		} else {
			precision = float64(matches[n]) / float64(totals[n])
		}
		logSum += math.Log(precision)
	}

	brevity := 1.0
	if hypLen < refLen {
		brevity = math.Exp(1 - float64(refLen)/float64(hypLen))
	}

	return 100 * brevity * math.Exp(logSum/bleuOrder)
}

func ngramCounts(tokens []string, n int) map[string]int {
	if len(tokens) < n {
		return nil
	}
	counts := make(map[string]int, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return counts
}

// Package dst computes dialogue-state-tracking metrics: joint goal accuracy
// and micro-averaged slot precision, recall and F1 with fuzzy value
// comparison.
package dst

import (
	"log/slog"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
)

// DefaultFuzzyThreshold is the partial-ratio score a value pair must exceed
// to count as matching.
const DefaultFuzzyThreshold = 95

// epsilon keeps denominators finite on empty corpora.
const epsilon = 1e-10

// Metrics holds DST results. JointAccuracy and SlotF1 are percentages in
// [0, 100]; SlotPrecision and SlotRecall are fractions in [0, 1].
type Metrics struct {
	JointAccuracy float64 `json:"joint_accuracy"`
	SlotF1        float64 `json:"slot_f1"`
	SlotPrecision float64 `json:"slot_precision"`
	SlotRecall    float64 `json:"slot_recall"`
}

// slotKey identifies one flattened (domain, slot) prediction.
type slotKey struct {
	domain corpus.Domain
	slot   string
}

// Score compares predicted against reference state sequences. A turn counts
// towards joint accuracy iff both states have exactly the same (domain,
// slot) key set and every value pair exceeds the fuzzy threshold. Dialogues
// with mismatched turn counts are scored over the overlapping prefix.
func Score(hyps, refs map[string][]corpus.State, threshold int) Metrics {
	var jointMatch, turns int
	var tp, fp, fn int

	for id, hypTurns := range hyps {
		refTurns, ok := refs[id]
		if !ok {
			slog.Warn("dst: dialogue missing from reference states, skipping", "dialogue", id)
			continue
		}
		if len(hypTurns) != len(refTurns) {
			slog.Warn("dst: turn count mismatch, scoring overlapping prefix",
				"dialogue", id, "hypothesis_turns", len(hypTurns), "reference_turns", len(refTurns))
		}
		n := min(len(hypTurns), len(refTurns))
		for i := 0; i < n; i++ {
			hyp := flatten(hypTurns[i])
			ref := flatten(refTurns[i])

			if matching(hyp, ref, threshold) {
				jointMatch++
			}

			for key, value := range hyp {
				if refValue, ok := ref[key]; ok && fuzzy.PartialRatio(value, refValue) > threshold {
					tp++
				} else {
					fp++
				}
			}
			for key, refValue := range ref {
				if value, ok := hyp[key]; !ok || fuzzy.PartialRatio(value, refValue) <= threshold {
					fn++
				}
			}
			turns++
		}
	}

	precision := float64(tp) / (float64(tp+fp) + epsilon)
	recall := float64(tp) / (float64(tp+fn) + epsilon)
	return Metrics{
		JointAccuracy: 100 * float64(jointMatch) / (float64(turns) + epsilon),
		SlotF1:        100 * 2 * precision * recall / (precision + recall + epsilon),
		SlotPrecision: precision,
		SlotRecall:    recall,
	}
}

// flatten collapses the two-level state into (domain, slot) -> value.
func flatten(state corpus.State) map[slotKey]string {
	flat := make(map[slotKey]string)
	for _, d := range state.Domains() {
		sv, _ := state.Get(d)
		for slot, value := range sv {
			flat[slotKey{d, slot}] = value
		}
	}
	return flat
}

// matching reports whether two flattened states share the same key set with
// every value pair above the fuzzy threshold.
func matching(hyp, ref map[slotKey]string, threshold int) bool {
	if len(hyp) != len(ref) {
		return false
	}
	for key, refValue := range ref {
		value, ok := hyp[key]
		if !ok {
			return false
		}
		if fuzzy.PartialRatio(value, refValue) <= threshold {
			return false
		}
	}
	return true
}

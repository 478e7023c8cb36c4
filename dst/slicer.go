package dst

import (
	"log/slog"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
)

// LOOCVDomains are the domains over which leave-one-out slices are
// computed. Police and hospital carry no venue database and no slices.
var LOOCVDomains = []corpus.Domain{
	corpus.DomainHotel,
	corpus.DomainTrain,
	corpus.DomainRestaurant,
	corpus.DomainAttraction,
	corpus.DomainTaxi,
}

// Filter restricts predicted and reference state sequences to the included
// domains, for computing joint accuracy with respect to a single domain or
// to everything but one domain.
//
// A turn whose reference becomes empty under the restriction while the
// original reference was not is a boundary turn about excluded domains
// only: it is dropped from both sequences, and if everything accumulated so
// far is empty the accumulated sequences are discarded, so leading turns
// with no bearing on the included domains earn no credit. The restricted
// hypothesis turn is kept even when empty — a model that wrongly includes
// excluded-domain slots is still penalized structurally. Dialogues whose
// restricted reference is entirely empty are dropped from both outputs.
func Filter(hyps, refs map[string][]corpus.State, included corpus.DomainSet) (map[string][]corpus.State, map[string][]corpus.State) {
	outHyps := make(map[string][]corpus.State)
	outRefs := make(map[string][]corpus.State)

	for id, hypTurns := range hyps {
		refTurns, ok := refs[id]
		if !ok {
			slog.Warn("dst: dialogue missing from reference states, skipping", "dialogue", id)
			continue
		}
		if len(hypTurns) != len(refTurns) {
			slog.Warn("dst: turn count mismatch while filtering",
				"dialogue", id, "hypothesis_turns", len(hypTurns), "reference_turns", len(refTurns))
		}

		var newHyps, newRefs []corpus.State
		n := min(len(hypTurns), len(refTurns))
		for i := 0; i < n; i++ {
			newRef := restrict(refTurns[i], included)

			if newRef.Len() == 0 && refTurns[i].Len() != 0 {
				if len(newRefs) > 0 && allEmpty(newRefs) {
					newRefs = newRefs[:0]
					newHyps = newHyps[:0]
				}
				continue
			}

			newRefs = append(newRefs, newRef)
			newHyps = append(newHyps, restrict(hypTurns[i], included))
		}

		// A dialogue with nothing left to track carries no signal.
		if allEmpty(newRefs) {
			continue
		}
		outHyps[id] = newHyps
		outRefs[id] = newRefs
	}

	return outHyps, outRefs
}

// restrict keeps only the included domains of a state, preserving order.
func restrict(state corpus.State, included corpus.DomainSet) corpus.State {
	var out corpus.State
	for _, d := range state.Domains() {
		if included.Has(d) {
			sv, _ := state.Get(d)
			out.Set(d, sv)
		}
	}
	return out
}

func allEmpty(states []corpus.State) bool {
	for _, s := range states {
		if s.Len() != 0 {
			return false
		}
	}
	return true
}

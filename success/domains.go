package success

import "github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"

// AnnotateActiveDomains estimates the active domain of each turn from the
// pattern of dialogue-state changes and writes it into the turns.
//
// The slot names used for delexicalization carry no domain information, so
// the active domain is approximated as the domain that most recently changed
// in the dialogue state. The heuristic keeps one current domain across
// turns:
//   - if exactly the current domain changed, it stays current
//   - if other domains changed, the changed domain with the most filled
//     slots takes over (first encountered wins ties)
//   - if nothing changed but several domains changed last turn, the first
//     of those still present in the state (other than the current domain)
//     takes over
//
// Domain order within a state follows its insertion order, which makes the
// tie-breaks deterministic and part of the metric's contract.
func AnnotateActiveDomains(turns []corpus.Turn) {
	var current corpus.Domain
	var oldState corpus.State
	var oldChanged []corpus.Domain

	for i := range turns {
		state := turns[i].State

		var changed []corpus.Domain
		for _, d := range state.Domains() {
			if domainChanged(state, oldState, d) {
				changed = append(changed, d)
			}
		}

		if len(changed) == 0 {
			if current == "" {
				turns[i].ActiveDomains = []corpus.Domain{}
				turns[i].HasActiveDomains = true
				continue
			}
			if len(oldChanged) > 1 {
				var candidates []corpus.Domain
				for _, d := range oldChanged {
					if state.Has(d) && d != current {
						candidates = append(candidates, d)
					}
				}
				if len(candidates) > 0 {
					current = candidates[0]
				}
			}
		} else if !containsDomain(changed, current) {
			best := changed[0]
			for _, d := range changed[1:] {
				if slotCount(state, d) > slotCount(state, best) {
					best = d
				}
			}
			current = best
		}

		oldState = state
		oldChanged = changed
		turns[i].ActiveDomains = []corpus.Domain{current}
		turns[i].HasActiveDomains = true
	}
}

// domainChanged reports whether the domain's set of (slot, value) pairs in
// state contains any pair absent from oldState. Removing a slot alone does
// not count as a change.
func domainChanged(state, oldState corpus.State, d corpus.Domain) bool {
	sv, _ := state.Get(d)
	old, _ := oldState.Get(d)
	for slot, value := range sv {
		if oldValue, ok := old[slot]; !ok || oldValue != value {
			return true
		}
	}
	return false
}

func slotCount(state corpus.State, d corpus.Domain) int {
	sv, _ := state.Get(d)
	return len(sv)
}

func containsDomain(domains []corpus.Domain, d corpus.Domain) bool {
	for _, x := range domains {
		if x == d {
			return true
		}
	}
	return false
}

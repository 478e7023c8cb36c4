// Package corpus holds the data model of the MultiWOZ benchmark: dialogues,
// turns, states, goals, and the loaders that bring them into memory.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// Turn is a single system turn of a dialogue.
type Turn struct {
	// Response is the (delexicalized) system utterance.
	Response string
	// State holds the cumulative user constraints known as of this turn.
	// Valid only when HasState is true.
	State State
	// HasState records whether the source document carried a state
	// annotation for this turn.
	HasState bool
	// ActiveDomains lists the domains this turn is about. Valid only when
	// HasActiveDomains is true; an empty non-nil list is meaningful (no
	// domain active yet).
	ActiveDomains []Domain
	// HasActiveDomains records whether the source document carried an
	// active-domain annotation for this turn.
	HasActiveDomains bool
}

type turnJSON struct {
	Response      string    `json:"response"`
	State         *State    `json:"state"`
	ActiveDomains *[]string `json:"active_domains"`
}

// UnmarshalJSON decodes a turn, tracking which optional annotations were
// present in the source document.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw turnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Response = raw.Response
	if raw.State != nil {
		t.State = *raw.State
		t.HasState = true
	}
	if raw.ActiveDomains != nil {
		t.HasActiveDomains = true
		t.ActiveDomains = make([]Domain, 0, len(*raw.ActiveDomains))
		for _, name := range *raw.ActiveDomains {
			d, err := ParseDomain(name)
			if err != nil {
				return err
			}
			t.ActiveDomains = append(t.ActiveDomains, d)
		}
	}
	return nil
}

// MarshalJSON encodes a turn, omitting annotations that were never set.
func (t Turn) MarshalJSON() ([]byte, error) {
	out := map[string]any{"response": t.Response}
	if t.HasState {
		out["state"] = t.State
	}
	if t.HasActiveDomains {
		out["active_domains"] = t.ActiveDomains
	}
	return json.Marshal(out)
}

// Corpus maps dialogue identifiers to their ordered turns.
type Corpus map[string][]Turn

// Load reads an input corpus from a JSON file of the shape
// {dialogue_id: [{response, state?, active_domains?}, ...], ...}.
func Load(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes an input corpus from JSON bytes.
func Parse(data []byte) (Corpus, error) {
	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("corpus: parsing input: %w", err)
	}
	return c, nil
}

// HasStates reports whether every turn of every dialogue carries a state
// annotation.
func (c Corpus) HasStates() bool {
	for _, turns := range c {
		for _, t := range turns {
			if !t.HasState {
				return false
			}
		}
	}
	return true
}

// HasActiveDomains reports whether every turn of every dialogue carries an
// active-domain annotation.
func (c Corpus) HasActiveDomains() bool {
	for _, turns := range c {
		for _, t := range turns {
			if !t.HasActiveDomains {
				return false
			}
		}
	}
	return true
}

// DomainGoal is the user goal for a single domain.
type DomainGoal struct {
	// Informable are the constraints the user supplies to narrow the search.
	Informable SlotValues `json:"informable"`
	// Requestable are the slot names the user wants the system to reveal.
	Requestable []string `json:"requestable"`
}

// Goal maps each domain of a dialogue to the user's goal for it.
type Goal map[Domain]DomainGoal

// Validate rejects goals that mention domains outside the closed set.
func (g Goal) Validate() error {
	for d := range g {
		if _, err := ParseDomain(string(d)); err != nil {
			return err
		}
	}
	return nil
}

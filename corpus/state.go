package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SlotValues maps slot names to their values within one domain.
type SlotValues map[string]string

// State is a dialogue state: the cumulative user constraints known as of a
// turn, per domain. Domain insertion order is preserved because the
// active-domain heuristic tie-breaks on the order domains appear in the
// state mapping.
type State struct {
	order []Domain
	slots map[Domain]SlotValues
}

// NewState builds a state from ordered (domain, slots) pairs.
func NewState(pairs ...DomainState) State {
	var s State
	for _, p := range pairs {
		s.Set(p.Domain, p.Slots)
	}
	return s
}

// DomainState is one domain's constraint set, used to construct states.
type DomainState struct {
	Domain Domain
	Slots  SlotValues
}

// Set stores the constraint set for a domain, appending the domain to the
// iteration order if it is new.
func (s *State) Set(d Domain, sv SlotValues) {
	if s.slots == nil {
		s.slots = make(map[Domain]SlotValues)
	}
	if _, ok := s.slots[d]; !ok {
		s.order = append(s.order, d)
	}
	s.slots[d] = sv
}

// Get returns the constraint set for a domain.
func (s State) Get(d Domain) (SlotValues, bool) {
	sv, ok := s.slots[d]
	return sv, ok
}

// Has reports whether the state mentions a domain.
func (s State) Has(d Domain) bool {
	_, ok := s.slots[d]
	return ok
}

// Domains returns the domains in insertion order. The returned slice is
// shared; callers must not mutate it.
func (s State) Domains() []Domain {
	return s.order
}

// Len is the number of domains mentioned in the state.
func (s State) Len() int {
	return len(s.slots)
}

// UnmarshalJSON decodes a {domain: {slot: value}} object, preserving the
// key order of the source document.
func (s *State) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("corpus: state must be a JSON object, got %v", tok)
	}
	*s = State{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		domain, err := ParseDomain(name)
		if err != nil {
			return err
		}
		var sv SlotValues
		if err := dec.Decode(&sv); err != nil {
			return fmt.Errorf("corpus: state for domain %q: %w", name, err)
		}
		s.Set(domain, sv)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the state with domains in insertion order.
func (s State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(d))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(s.slots[d])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

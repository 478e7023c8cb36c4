package corpus

import (
	"fmt"
	"strings"
	"unicode"
)

// slotNameAliases folds the slot spellings found across MultiWOZ releases
// into the canonical lowercase, space-free form used by the venue database.
var slotNameAliases = map[string]string{
	"arrive by":   "arriveby",
	"leave at":    "leaveat",
	"price range": "pricerange",
	"book day":    "bookday",
	"book people": "bookpeople",
	"book stay":   "bookstay",
	"book time":   "booktime",
}

// valueAliases folds common surface variants of slot values.
var valueAliases = map[string]string{
	"center":              "centre",
	"guest house":         "guesthouse",
	"swimming pool":       "swimmingpool",
	"concert hall":        "concerthall",
	"night club":          "nightclub",
	"moderately priced":   "moderate",
	"does not care":       "dontcare",
	"dont care":           "dontcare",
	"don't care":          "dontcare",
	"cheaply priced":      "cheap",
	"expensively priced":  "expensive",
	"mutliple sports":     "multiple sports",
	"caffe uno":           "cafe uno",
	"el shaddia guesthouse": "el shaddai",
}

// NormalizeText canonicalizes a piece of text: unusual Unicode whitespace
// and hyphens folded to their ASCII forms, zero-width characters stripped,
// runs of whitespace collapsed. Case is preserved so that delexicalized
// markers like NAME and PHONE survive in responses.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case r == '\u2010' || r == '\u2011' || r == '\u2012' || r == '\u2013' || r == '\u2014':
			b.WriteByte('-')
			lastSpace = false
		case r == '\u200B' || r == '\u200C' || r == '\u200D' || r == '\uFEFF':
			// strip zero-width characters
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizeSlotName canonicalizes a slot name to its lowercase, space-free
// form.
func NormalizeSlotName(name string) string {
	name = strings.ToLower(NormalizeText(name))
	if alias, ok := slotNameAliases[name]; ok {
		return alias
	}
	return strings.ReplaceAll(name, " ", "")
}

// NormalizeValue canonicalizes a slot value to lowercase, including time
// values of the form "5:30 pm" to 24-hour "17:30".
func NormalizeValue(value string) string {
	value = strings.ToLower(NormalizeText(value))
	if alias, ok := valueAliases[value]; ok {
		return alias
	}
	if t, ok := normalizeTime(value); ok {
		return t
	}
	return value
}

// normalizeTime converts "h:mm am/pm" and bare "h:mm" times to zero-padded
// 24-hour form. Returns false for anything that is not a time.
func normalizeTime(value string) (string, bool) {
	v := value
	meridiem := ""
	for _, suffix := range []string{" am", " pm", "am", "pm"} {
		if strings.HasSuffix(v, suffix) {
			meridiem = strings.TrimSpace(suffix)
			v = strings.TrimSpace(strings.TrimSuffix(v, suffix))
			break
		}
	}
	var hh, mm int
	if _, err := fmt.Sscanf(v, "%d:%d", &hh, &mm); err != nil {
		return "", false
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return "", false
	}
	if meridiem == "pm" && hh < 12 {
		hh += 12
	}
	if meridiem == "am" && hh == 12 {
		hh = 0
	}
	return fmt.Sprintf("%02d:%02d", hh, mm), true
}

// Normalize canonicalizes every response, slot name and slot value of the
// corpus in place. Slot values reach the scoring code already normalized;
// the scorers perform no further canonicalization.
func (c Corpus) Normalize() {
	for id, turns := range c {
		for i := range turns {
			turns[i].Response = NormalizeText(turns[i].Response)
			if turns[i].HasState {
				turns[i].State = NormalizeState(turns[i].State)
			}
		}
		c[id] = turns
	}
}

// NormalizeState returns a copy of the state with canonical slot names and
// values, preserving domain order.
func NormalizeState(s State) State {
	var out State
	for _, d := range s.Domains() {
		sv, _ := s.Get(d)
		norm := make(SlotValues, len(sv))
		for name, value := range sv {
			norm[NormalizeSlotName(name)] = NormalizeValue(value)
		}
		out.Set(d, norm)
	}
	return out
}

// NormalizeGoal returns a copy of the goal with canonical slot names and
// values.
func NormalizeGoal(g Goal) Goal {
	out := make(Goal, len(g))
	for d, dg := range g {
		informable := make(SlotValues, len(dg.Informable))
		for name, value := range dg.Informable {
			informable[NormalizeSlotName(name)] = NormalizeValue(value)
		}
		requestable := make([]string, len(dg.Requestable))
		for i, r := range dg.Requestable {
			requestable[i] = NormalizeSlotName(r)
		}
		out[d] = DomainGoal{Informable: informable, Requestable: requestable}
	}
	return out
}

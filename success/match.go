// Package success computes the Inform and Success rates of dialogues
// against the benchmark goals and venue database.
package success

import (
	"strings"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/database"
)

// VenueDB is the database capability the matcher consumes: every venue of a
// domain consistent with the given constraints.
type VenueDB interface {
	Query(domain corpus.Domain, constraints corpus.SlotValues) ([]database.Venue, error)
}

// requestableMarkers are the delexicalized-slot placeholders scanned for in
// system responses.
var requestableMarkers = []string{"PHONE", "ADDRESS", "POST", "REFERENCE", "TRAINID"}

// namedVenueDomains are the domains whose venues are offered via a NAME
// marker.
var namedVenueDomains = map[corpus.Domain]bool{
	corpus.DomainRestaurant: true,
	corpus.DomainHotel:      true,
	corpus.DomainAttraction: true,
}

// trivialDomains have no venue concept and always count as matched.
var trivialDomains = map[corpus.Domain]bool{
	corpus.DomainTaxi:     true,
	corpus.DomainPolice:   true,
	corpus.DomainHospital: true,
}

// MatchResult records, per goal domain, whether the venues the system
// offered are consistent with the user's goal. Total is true iff every
// domain matched.
type MatchResult struct {
	Domains map[corpus.Domain]bool
	Total   bool
}

// SuccessResult records, per goal domain, whether every requested slot was
// surfaced. It is only evaluated when the dialogue's venues matched
// overall; Domains is nil otherwise.
type SuccessResult struct {
	Domains map[corpus.Domain]bool
	Total   bool
}

// Evaluated reports whether success was computed at all.
func (s SuccessResult) Evaluated() bool { return s.Domains != nil }

// DialogOutcome scans a dialogue's system responses against its goal and
// returns the per-domain match and success verdicts.
func DialogOutcome(goal corpus.Goal, booked corpus.DomainSet, turns []corpus.Turn, db VenueDB) (MatchResult, SuccessResult, error) {
	offered := make(map[corpus.Domain][]database.Venue, len(goal))
	trivially := make(map[corpus.Domain]bool, len(goal))
	provided := make(map[corpus.Domain]map[string]bool, len(goal))
	for d := range goal {
		provided[d] = make(map[string]bool)
	}

	for _, turn := range turns {
		response := turn.Response

		for domain := range goal {
			if !containsDomain(turn.ActiveDomains, domain) {
				continue
			}

			// NAME and TRAINID are the only markers that identify a venue.
			offersVenue := (namedVenueDomains[domain] && strings.Contains(response, "NAME")) ||
				(domain == corpus.DomainTrain && strings.Contains(response, "TRAINID"))
			if offersVenue {
				var matching []database.Venue
				if constraints, ok := turn.State.Get(domain); ok {
					var err error
					matching, err = db.Query(domain, constraints)
					if err != nil {
						return MatchResult{}, SuccessResult{}, err
					}
				}
				// Keep the previously offered set only while it stays a
				// subset of what the current state matches; otherwise the
				// current query result replaces it.
				if len(offered[domain]) == 0 || !venueSubset(offered[domain], matching) {
					offered[domain] = matching
				}
			}

			for _, marker := range requestableMarkers {
				if !strings.Contains(response, marker) {
					continue
				}
				// A reference code only counts when the ground truth
				// confirms a booking actually happened in this domain.
				if marker == "REFERENCE" && !booked.Has(domain) {
					continue
				}
				provided[domain][marker] = true
			}
		}
	}

	for domain, dg := range goal {
		// A goal that names the venue outright is matched automatically.
		if _, ok := dg.Informable["name"]; ok {
			trivially[domain] = true
		}
		if trivialDomains[domain] {
			trivially[domain] = true
		}
	}
	// A train goal with no offered train and no train id requested is
	// matched; if a train *was* offered it must still be the right one.
	if dg, ok := goal[corpus.DomainTrain]; ok && len(offered[corpus.DomainTrain]) == 0 {
		if !requiresMarker(dg.Requestable, "TRAINID") {
			trivially[corpus.DomainTrain] = true
		}
	}

	match := MatchResult{Domains: make(map[corpus.Domain]bool, len(goal)), Total: true}
	for domain := range goal {
		ok := trivially[domain]
		if !ok && len(offered[domain]) > 0 {
			// Whatever the system showed must be contained in the venues
			// satisfying the full goal constraints, not the reverse.
			goalVenues, err := db.Query(domain, goal[domain].Informable)
			if err != nil {
				return MatchResult{}, SuccessResult{}, err
			}
			ok = venueSubset(offered[domain], goalVenues)
		}
		match.Domains[domain] = ok
		if !ok {
			match.Total = false
		}
	}

	var success SuccessResult
	if match.Total {
		success.Domains = make(map[corpus.Domain]bool, len(goal))
		success.Total = true
		for domain, dg := range goal {
			ok := true
			for _, requestable := range dg.Requestable {
				if !provided[domain][strings.ToUpper(requestable)] {
					ok = false
					break
				}
			}
			success.Domains[domain] = ok
			if !ok {
				success.Total = false
			}
		}
	}

	return match, success, nil
}

// venueSubset reports whether every venue in sub has a structurally equal
// counterpart in super.
func venueSubset(sub, super []database.Venue) bool {
	for _, v := range sub {
		found := false
		for _, o := range super {
			if v.Equal(o) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func requiresMarker(requestables []string, marker string) bool {
	for _, r := range requestables {
		if strings.ToUpper(r) == marker {
			return true
		}
	}
	return false
}

package success

import (
	"testing"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/database"
)

// stubDB answers queries from a fixed table, matching constraints against
// venue attributes exactly.
type stubDB struct {
	venues map[corpus.Domain][]database.Venue
}

func (s *stubDB) Query(domain corpus.Domain, constraints corpus.SlotValues) ([]database.Venue, error) {
	var out []database.Venue
	for _, v := range s.venues[domain] {
		ok := true
		for slot, wanted := range constraints {
			if wanted == "" || wanted == "dontcare" {
				continue
			}
			if v.Attrs[slot] != wanted {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func restaurant(id string, attrs corpus.SlotValues) database.Venue {
	return database.Venue{Domain: corpus.DomainRestaurant, ID: id, Attrs: attrs}
}

func testDB() *stubDB {
	return &stubDB{venues: map[corpus.Domain][]database.Venue{
		corpus.DomainRestaurant: {
			restaurant("curry prince", corpus.SlotValues{"food": "indian", "area": "east", "pricerange": "moderate"}),
			restaurant("rajmahal", corpus.SlotValues{"food": "indian", "area": "east", "pricerange": "cheap"}),
			restaurant("pizza hut", corpus.SlotValues{"food": "italian", "area": "south", "pricerange": "cheap"}),
		},
		corpus.DomainTrain: {
			{Domain: corpus.DomainTrain, ID: "tr0001", Attrs: corpus.SlotValues{"departure": "cambridge", "day": "monday"}},
			{Domain: corpus.DomainTrain, ID: "tr0002", Attrs: corpus.SlotValues{"departure": "london", "day": "monday"}},
		},
	}}
}

func restaurantTurn(response string, constraints corpus.SlotValues) corpus.Turn {
	return corpus.Turn{
		Response:      response,
		State:         corpus.NewState(corpus.DomainState{Domain: corpus.DomainRestaurant, Slots: constraints}),
		ActiveDomains: []corpus.Domain{corpus.DomainRestaurant},
	}
}

func TestDialogOutcomeInformAndSuccess(t *testing.T) {
	goal := corpus.Goal{
		corpus.DomainRestaurant: {
			Informable:  corpus.SlotValues{"food": "indian", "area": "east"},
			Requestable: []string{"phone"},
		},
	}
	turns := []corpus.Turn{
		restaurantTurn("NAME serves indian food , its number is PHONE", corpus.SlotValues{"food": "indian", "area": "east", "pricerange": "moderate"}),
	}

	match, outcome, err := DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if !match.Total || !match.Domains[corpus.DomainRestaurant] {
		t.Errorf("match = %+v, want restaurant matched", match)
	}
	if !outcome.Evaluated() || !outcome.Total {
		t.Errorf("outcome = %+v, want success", outcome)
	}
}

func TestDialogOutcomeWrongVenue(t *testing.T) {
	goal := corpus.Goal{
		corpus.DomainRestaurant: {
			Informable: corpus.SlotValues{"food": "indian", "area": "east"},
		},
	}
	// The offered venue satisfies the tracked state but not the goal.
	turns := []corpus.Turn{
		restaurantTurn("how about NAME ?", corpus.SlotValues{"food": "italian"}),
	}

	match, outcome, err := DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if match.Total {
		t.Errorf("match = %+v, want failure", match)
	}
	if outcome.Evaluated() {
		t.Error("success should not be evaluated when the venues do not match")
	}
}

func TestDialogOutcomeMissingRequestable(t *testing.T) {
	goal := corpus.Goal{
		corpus.DomainRestaurant: {
			Informable:  corpus.SlotValues{"food": "indian", "area": "east"},
			Requestable: []string{"phone", "address"},
		},
	}
	turns := []corpus.Turn{
		restaurantTurn("NAME is lovely , the number is PHONE", corpus.SlotValues{"food": "indian", "area": "east"}),
	}

	match, outcome, err := DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if !match.Total {
		t.Fatalf("match = %+v, want success", match)
	}
	if !outcome.Evaluated() || outcome.Total {
		t.Errorf("outcome = %+v, want evaluated but failed (address never given)", outcome)
	}
}

func TestDialogOutcomeReferenceNeedsBooking(t *testing.T) {
	goal := corpus.Goal{
		corpus.DomainRestaurant: {
			Informable:  corpus.SlotValues{"name": "curry prince"},
			Requestable: []string{"reference"},
		},
	}
	turns := []corpus.Turn{
		restaurantTurn("booked ! your reference is REFERENCE", corpus.SlotValues{"name": "curry prince"}),
	}

	match, outcome, err := DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if !match.Total {
		t.Fatalf("match = %+v, want success (goal names the venue)", match)
	}
	if outcome.Total {
		t.Error("reference should not count without a confirmed booking")
	}

	booked := corpus.DomainSet{}
	booked.Add(corpus.DomainRestaurant)
	_, outcome, err = DialogOutcome(goal, booked, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if !outcome.Total {
		t.Error("reference should count once the booking is confirmed")
	}
}

func TestDialogOutcomeNarrowsOfferedVenues(t *testing.T) {
	goal := corpus.Goal{
		corpus.DomainRestaurant: {
			Informable: corpus.SlotValues{"food": "indian", "area": "east", "pricerange": "cheap"},
		},
	}
	// The first offer matches two venues; only one survives the added
	// constraint, and the goal accepts exactly that one.
	turns := []corpus.Turn{
		restaurantTurn("i have options , NAME for example", corpus.SlotValues{"food": "indian", "area": "east"}),
		restaurantTurn("then NAME is the cheap one", corpus.SlotValues{"food": "indian", "area": "east", "pricerange": "cheap"}),
	}

	match, _, err := DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if !match.Total {
		t.Errorf("match = %+v, want success after narrowing", match)
	}
}

func TestDialogOutcomeKeepsOfferedSubset(t *testing.T) {
	goal := corpus.Goal{
		corpus.DomainRestaurant: {
			Informable: corpus.SlotValues{"food": "indian", "area": "east", "pricerange": "cheap"},
		},
	}
	// The narrow offer comes first; relaxing the state later must not
	// widen the offered set again.
	turns := []corpus.Turn{
		restaurantTurn("NAME is the cheap one", corpus.SlotValues{"food": "indian", "area": "east", "pricerange": "cheap"}),
		restaurantTurn("NAME works too", corpus.SlotValues{"food": "indian", "area": "east"}),
	}

	match, _, err := DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if !match.Total {
		t.Errorf("match = %+v, want success (narrow offer kept)", match)
	}
}

func TestDialogOutcomeTrainWithoutOffer(t *testing.T) {
	goal := corpus.Goal{
		corpus.DomainTrain: {
			Informable:  corpus.SlotValues{"departure": "cambridge"},
			Requestable: []string{"price"},
		},
	}
	turns := []corpus.Turn{
		{
			Response:      "the ticket costs 10 pounds",
			State:         corpus.NewState(corpus.DomainState{Domain: corpus.DomainTrain, Slots: corpus.SlotValues{"departure": "cambridge"}}),
			ActiveDomains: []corpus.Domain{corpus.DomainTrain},
		},
	}

	match, _, err := DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if !match.Domains[corpus.DomainTrain] {
		t.Error("train goal without a train id request should match when no train was offered")
	}

	// The same goal asking for a train id is not let off the hook.
	goal[corpus.DomainTrain] = corpus.DomainGoal{
		Informable:  corpus.SlotValues{"departure": "cambridge"},
		Requestable: []string{"trainid"},
	}
	match, _, err = DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if match.Domains[corpus.DomainTrain] {
		t.Error("train goal requesting a train id should not match without an offer")
	}
}

func TestDialogOutcomeTrivialDomain(t *testing.T) {
	goal := corpus.Goal{
		corpus.DomainTaxi: {Requestable: []string{"phone"}},
	}
	turns := []corpus.Turn{
		{
			Response:      "your taxi is booked , the contact number is PHONE",
			ActiveDomains: []corpus.Domain{corpus.DomainTaxi},
		},
	}

	match, outcome, err := DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if !match.Total || !outcome.Total {
		t.Errorf("match = %+v outcome = %+v, want both successful", match, outcome)
	}
}

func TestDialogOutcomeIgnoresInactiveDomains(t *testing.T) {
	goal := corpus.Goal{
		corpus.DomainRestaurant: {
			Informable:  corpus.SlotValues{"food": "indian", "area": "east"},
			Requestable: []string{"phone"},
		},
	}
	// The marker appears while another domain is active, so it earns no
	// credit for the restaurant goal.
	turns := []corpus.Turn{
		{
			Response:      "the hotel number is PHONE",
			State:         corpus.NewState(corpus.DomainState{Domain: corpus.DomainHotel, Slots: corpus.SlotValues{"area": "east"}}),
			ActiveDomains: []corpus.Domain{corpus.DomainHotel},
		},
		restaurantTurn("NAME serves indian food", corpus.SlotValues{"food": "indian", "area": "east"}),
	}

	_, outcome, err := DialogOutcome(goal, nil, turns, testDB())
	if err != nil {
		t.Fatalf("DialogOutcome: %v", err)
	}
	if !outcome.Evaluated() || outcome.Total {
		t.Errorf("outcome = %+v, want evaluated but failed (phone shown for the wrong domain)", outcome)
	}
}

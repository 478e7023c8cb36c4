package corpus

import (
	"errors"
	"fmt"
)

// Domain is one of the closed set of MultiWOZ service domains.
type Domain string

const (
	DomainRestaurant Domain = "restaurant"
	DomainHotel      Domain = "hotel"
	DomainAttraction Domain = "attraction"
	DomainTrain      Domain = "train"
	DomainTaxi       Domain = "taxi"
	DomainPolice     Domain = "police"
	DomainHospital   Domain = "hospital"
	// DomainBus appears in a handful of MultiWOZ 2.2 states.
	DomainBus Domain = "bus"
)

// Domains is the full closed domain set.
var Domains = []Domain{
	DomainRestaurant,
	DomainHotel,
	DomainAttraction,
	DomainTrain,
	DomainTaxi,
	DomainPolice,
	DomainHospital,
	DomainBus,
}

// ErrUnknownDomain is returned when a corpus mentions a domain name outside
// the closed MultiWOZ domain set.
var ErrUnknownDomain = errors.New("corpus: unknown domain")

// ParseDomain validates a raw domain name against the closed set.
func ParseDomain(name string) (Domain, error) {
	for _, d := range Domains {
		if Domain(name) == d {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDomain, name)
}

// DomainSet is an unordered set of domains.
type DomainSet map[Domain]struct{}

// Has reports whether d is in the set.
func (s DomainSet) Has(d Domain) bool {
	_, ok := s[d]
	return ok
}

// Add inserts d into the set.
func (s DomainSet) Add(d Domain) {
	s[d] = struct{}{}
}

package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ErrFetchFailed is returned when benchmark data cannot be downloaded or
// read from the cache.
var ErrFetchFailed = errors.New("corpus: fetching benchmark data failed")

const (
	defaultEvalDataURL = "https://raw.githubusercontent.com/Tomiinek/MultiWOZ_Evaluation/master/mwzeval/data"
	defaultVenueDataURL = "https://raw.githubusercontent.com/budzianowski/multiwoz/master/db"
)

// Provisioner downloads benchmark data files on first use and caches them
// under CacheDir. Every accessor prefers the cached copy, so once the cache
// is warm no network access happens.
type Provisioner struct {
	// CacheDir is where downloaded files are stored.
	CacheDir string
	// EvalDataURL overrides the base URL for goals, booked domains, gold
	// states and references.
	EvalDataURL string
	// VenueDataURL overrides the base URL for the per-domain venue files.
	VenueDataURL string
	// Client is the HTTP client used for downloads. Defaults to
	// http.DefaultClient.
	Client *http.Client
}

// NewProvisioner returns a provisioner caching under cacheDir.
func NewProvisioner(cacheDir string) *Provisioner {
	return &Provisioner{CacheDir: cacheDir}
}

// Goals loads the per-dialogue user goals.
func (p *Provisioner) Goals(ctx context.Context) (map[string]Goal, error) {
	data, err := p.fetch(ctx, p.evalDataURL()+"/goals.json", "goals.json")
	if err != nil {
		return nil, err
	}
	var goals map[string]Goal
	if err := json.Unmarshal(data, &goals); err != nil {
		return nil, fmt.Errorf("%w: parsing goals.json: %v", ErrFetchFailed, err)
	}
	for id, g := range goals {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("goal for dialogue %s: %w", id, err)
		}
	}
	return goals, nil
}

// BookedDomains loads, per dialogue, the set of domains with a confirmed
// booking in the ground truth. The upstream file lists booked domains per
// turn; the union over turns is what gates REFERENCE credit.
func (p *Provisioner) BookedDomains(ctx context.Context) (map[string]DomainSet, error) {
	data, err := p.fetch(ctx, p.evalDataURL()+"/booked_domains.json", "booked_domains.json")
	if err != nil {
		return nil, err
	}
	var perTurn map[string][][]string
	if err := json.Unmarshal(data, &perTurn); err != nil {
		return nil, fmt.Errorf("%w: parsing booked_domains.json: %v", ErrFetchFailed, err)
	}
	booked := make(map[string]DomainSet, len(perTurn))
	for id, turns := range perTurn {
		set := make(DomainSet)
		for _, names := range turns {
			for _, name := range names {
				d, err := ParseDomain(name)
				if err != nil {
					return nil, fmt.Errorf("booked domains for dialogue %s: %w", id, err)
				}
				set.Add(d)
			}
		}
		booked[id] = set
	}
	return booked, nil
}

// GoldStates loads the reference per-turn dialogue states for the given
// benchmark version ("22" or "24").
func (p *Provisioner) GoldStates(ctx context.Context, version string) (map[string][]State, error) {
	name := fmt.Sprintf("gold_states%s.json", version)
	data, err := p.fetch(ctx, p.evalDataURL()+"/"+name, name)
	if err != nil {
		return nil, err
	}
	var states map[string][]State
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrFetchFailed, name, err)
	}
	return states, nil
}

// References loads the reference responses, keyed by reference-system name
// and dialogue id.
func (p *Provisioner) References(ctx context.Context, systems ...string) (map[string]map[string][]string, error) {
	if len(systems) == 0 {
		systems = []string{"mwz22"}
	}
	refs := make(map[string]map[string][]string, len(systems))
	for _, system := range systems {
		name := system + ".json"
		data, err := p.fetch(ctx, p.evalDataURL()+"/references/"+name, filepath.Join("references", name))
		if err != nil {
			return nil, err
		}
		var dialogues map[string][]string
		if err := json.Unmarshal(data, &dialogues); err != nil {
			return nil, fmt.Errorf("%w: parsing references/%s: %v", ErrFetchFailed, name, err)
		}
		refs[system] = dialogues
	}
	return refs, nil
}

// VenueDomains are the domains backed by a venue database.
var VenueDomains = []Domain{DomainRestaurant, DomainHotel, DomainAttraction, DomainTrain}

// Venues loads the raw venue records for every venue domain.
func (p *Provisioner) Venues(ctx context.Context) (map[Domain][]map[string]any, error) {
	venues := make(map[Domain][]map[string]any, len(VenueDomains))
	for _, d := range VenueDomains {
		name := fmt.Sprintf("%s_db.json", d)
		data, err := p.fetch(ctx, p.venueDataURL()+"/"+name, name)
		if err != nil {
			return nil, err
		}
		var records []map[string]any
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrFetchFailed, name, err)
		}
		venues[d] = records
	}
	return venues, nil
}

func (p *Provisioner) evalDataURL() string {
	if p.EvalDataURL != "" {
		return p.EvalDataURL
	}
	return defaultEvalDataURL
}

func (p *Provisioner) venueDataURL() string {
	if p.VenueDataURL != "" {
		return p.VenueDataURL
	}
	return defaultVenueDataURL
}

func (p *Provisioner) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

// fetch returns the cached copy of a file, downloading it first if needed.
func (p *Provisioner) fetch(ctx context.Context, url, cacheName string) ([]byte, error) {
	cachePath := filepath.Join(p.CacheDir, cacheName)
	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	resp, err := p.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetchFailed, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrFetchFailed, url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFetchFailed, url, err)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if err := os.WriteFile(cachePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: caching %s: %v", ErrFetchFailed, cacheName, err)
	}
	return data, nil
}

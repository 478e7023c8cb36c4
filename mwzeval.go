// Package mwzeval scores task-oriented dialogue systems against the
// MultiWOZ benchmark: corpus BLEU, Inform and Success rates, lexical
// richness, and dialogue-state-tracking accuracy with optional
// leave-one-domain-out slices.
package mwzeval

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/database"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/dst"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/report"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/success"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/textstats"
)

// Convenience aliases so most callers only import the root package.
type (
	Corpus = corpus.Corpus
	Report = report.Report
)

// LoadCorpus reads an input corpus from a JSON file.
var LoadCorpus = corpus.Load

// Evaluator holds the benchmark data (venue database, goals, booked
// domains, gold states, references) needed by the enabled metric families.
// It is safe for concurrent use once constructed.
type Evaluator struct {
	cfg        Config
	db         *database.DB
	goals      map[string]corpus.Goal
	booked     map[string]corpus.DomainSet
	goldStates map[string][]corpus.State
	references map[string]map[string][]string
}

// New builds an Evaluator for the given configuration, provisioning any
// missing benchmark data into the configured cache directory.
func New(ctx context.Context, cfg Config) (*Evaluator, error) {
	if cfg.Version == "" {
		cfg.Version = Version22
	}
	if cfg.FuzzyThreshold == 0 {
		cfg.FuzzyThreshold = dst.DefaultFuzzyThreshold
	}
	switch cfg.Version {
	case Version22:
	case Version24:
		if cfg.BLEU || cfg.Success || cfg.Richness {
			return nil, fmt.Errorf("%w: version 24 supports only DST metrics", ErrUnsupportedVersion)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, cfg.Version)
	}
	if !cfg.BLEU && !cfg.Success && !cfg.Richness && !cfg.DST {
		return nil, ErrNoMetrics
	}

	dataDir := cfg.resolveDataDir()
	provisioner := corpus.NewProvisioner(dataDir)
	e := &Evaluator{cfg: cfg}

	if cfg.BLEU {
		references, err := provisioner.References(ctx)
		if err != nil {
			return nil, err
		}
		e.references = references
	}

	if cfg.Success {
		goals, err := provisioner.Goals(ctx)
		if err != nil {
			return nil, err
		}
		if !cfg.DisableNormalization {
			for id, g := range goals {
				goals[id] = corpus.NormalizeGoal(g)
			}
		}
		e.goals = goals

		booked, err := provisioner.BookedDomains(ctx)
		if err != nil {
			return nil, err
		}
		e.booked = booked

		db, err := database.Open(filepath.Join(dataDir, "venues.db"))
		if err != nil {
			return nil, err
		}
		populated, err := db.Populated()
		if err != nil {
			db.Close()
			return nil, err
		}
		if !populated {
			slog.Info("mwzeval: populating venue database", "path", filepath.Join(dataDir, "venues.db"))
			venues, err := provisioner.Venues(ctx)
			if err != nil {
				db.Close()
				return nil, err
			}
			for domain, records := range venues {
				if err := db.LoadVenues(domain, records); err != nil {
					db.Close()
					return nil, err
				}
			}
		}
		e.db = db
	}

	if cfg.Success || cfg.DST {
		// The gold state files ship pre-normalized.
		goldStates, err := provisioner.GoldStates(ctx, string(cfg.Version))
		if err != nil {
			if e.db != nil {
				e.db.Close()
			}
			return nil, err
		}
		e.goldStates = goldStates
	}

	return e, nil
}

// Close releases the venue database.
func (e *Evaluator) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// Evaluate scores the input corpus and returns a report with every enabled
// metric family. The input is normalized (and possibly annotated with gold
// states or estimated active domains) in place.
func (e *Evaluator) Evaluate(ctx context.Context, input corpus.Corpus) (*report.Report, error) {
	if !e.cfg.DisableNormalization {
		input.Normalize()
	}

	// Decide DST eligibility before the success path substitutes gold
	// states into the input; predictions that never carried states must
	// not be scored against themselves.
	hadStates := input.HasStates()

	rep := report.New(string(e.cfg.Version))

	if e.cfg.BLEU {
		rep.BLEU = textstats.BLEU(input, e.references)
	}

	if e.cfg.Richness {
		rep.Richness = textstats.Richness(input)
	}

	if e.cfg.Success {
		if !hadStates {
			slog.Warn("mwzeval: input has no state predictions, substituting gold dialogue states")
			substituteGoldStates(input, e.goldStates)
		}
		if !input.HasActiveDomains() {
			slog.Warn("mwzeval: input has no active-domain predictions, estimating from dialogue states")
			for _, turns := range input {
				success.AnnotateActiveDomains(turns)
			}
		}
		rates, err := success.Rates(ctx, input, e.goals, e.booked, e.db, e.cfg.Workers)
		if err != nil {
			return nil, err
		}
		rep.Success = rates
	}

	if e.cfg.DST {
		switch {
		case hadStates:
			rep.DST = e.scoreDST(input)
		case !e.cfg.BLEU && !e.cfg.Success && !e.cfg.Richness:
			// Nothing else was computed, so there is no partial result
			// worth returning.
			return nil, ErrMissingStates
		default:
			slog.Error("mwzeval: DST metrics requested but the input has no state predictions")
		}
	}

	return rep, nil
}

func (e *Evaluator) scoreDST(input corpus.Corpus) *report.DSTReport {
	hyps := make(map[string][]corpus.State, len(input))
	for id, turns := range input {
		states := make([]corpus.State, len(turns))
		for i, turn := range turns {
			states[i] = turn.State
		}
		hyps[id] = states
	}

	result := &report.DSTReport{
		Metrics: dst.Score(hyps, e.goldStates, e.cfg.FuzzyThreshold),
	}
	if !e.cfg.LOOCV {
		return result
	}

	result.Only = make(map[corpus.Domain]dst.Metrics, len(dst.LOOCVDomains))
	result.Except = make(map[corpus.Domain]dst.Metrics, len(dst.LOOCVDomains))
	for _, domain := range dst.LOOCVDomains {
		only := corpus.DomainSet{domain: struct{}{}}
		h, r := dst.Filter(hyps, e.goldStates, only)
		result.Only[domain] = dst.Score(h, r, e.cfg.FuzzyThreshold)

		except := make(corpus.DomainSet, len(dst.LOOCVDomains)-1)
		for _, d := range dst.LOOCVDomains {
			if d != domain {
				except.Add(d)
			}
		}
		h, r = dst.Filter(hyps, e.goldStates, except)
		result.Except[domain] = dst.Score(h, r, e.cfg.FuzzyThreshold)
	}
	return result
}

// substituteGoldStates copies the reference states into every turn of the
// input.
func substituteGoldStates(input corpus.Corpus, gold map[string][]corpus.State) {
	for id, turns := range input {
		states, ok := gold[id]
		if !ok {
			slog.Warn("mwzeval: no gold states for dialogue", "dialogue", id)
			continue
		}
		for i := range turns {
			if i >= len(states) {
				slog.Warn("mwzeval: input has more turns than the gold states", "dialogue", id)
				break
			}
			turns[i].State = states[i]
			turns[i].HasState = true
		}
	}
}

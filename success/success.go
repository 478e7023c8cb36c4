package success

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
)

// Report holds the corpus-level Inform and Success rates, keyed by domain
// name plus "total" for all domains, as percentages in [0, 100].
type Report struct {
	Inform  map[string]float64 `json:"inform"`
	Success map[string]float64 `json:"success"`
}

// Rates scores every dialogue of the corpus and aggregates the per-domain
// Inform and Success rates. Dialogues are independent, so they are scored
// in parallel with at most workers goroutines; the shared counters are
// accumulated under a mutex.
//
// Every turn must carry state and active-domain annotations; see
// AnnotateActiveDomains for estimating the latter.
func Rates(ctx context.Context, c corpus.Corpus, goals map[string]corpus.Goal, booked map[string]corpus.DomainSet, db VenueDB, workers int) (*Report, error) {
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	totals := make(map[string]int)
	matchCounts := make(map[string]int)
	successCounts := make(map[string]int)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for id, turns := range c {
		goal, ok := goals[id]
		if !ok {
			slog.Warn("success: dialogue has no goal annotation, skipping", "dialogue", id)
			continue
		}
		bookedSet := booked[id]
		turns := turns

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			match, outcome, err := DialogOutcome(goal, bookedSet, turns, db)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			for domain, ok := range match.Domains {
				totals[string(domain)]++
				if ok {
					matchCounts[string(domain)]++
				}
				if outcome.Evaluated() && outcome.Domains[domain] {
					successCounts[string(domain)]++
				}
			}
			totals["total"]++
			if match.Total {
				matchCounts["total"]++
			}
			if outcome.Evaluated() && outcome.Total {
				successCounts["total"]++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Inform:  make(map[string]float64, len(totals)),
		Success: make(map[string]float64, len(totals)),
	}
	for key, total := range totals {
		report.Inform[key] = rate(matchCounts[key], total)
		report.Success[key] = rate(successCounts[key], total)
	}
	return report, nil
}

// rate is 100 * count / total, rounded to one decimal place.
func rate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(1000*float64(count)/float64(total)) / 10
}

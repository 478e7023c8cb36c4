// Package report assembles evaluation results and writes them as JSON or
// as an xlsx workbook.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/dst"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/success"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/textstats"
)

// Report holds the results of one evaluation run.
type Report struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Version   string    `json:"version"`

	BLEU     map[string]float64        `json:"bleu,omitempty"`
	Success  *success.Report           `json:"success,omitempty"`
	Richness *textstats.RichnessReport `json:"richness,omitempty"`
	DST      *DSTReport                `json:"dst,omitempty"`
}

// New returns an empty report stamped with a fresh run id.
func New(version string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Version:   version,
	}
}

// DSTReport extends the overall DST metrics with optional per-domain
// leave-one-out slices.
type DSTReport struct {
	dst.Metrics
	// Only holds metrics restricted to a single domain.
	Only map[corpus.Domain]dst.Metrics
	// Except holds metrics with a single domain excluded.
	Except map[corpus.Domain]dst.Metrics
}

// MarshalJSON flattens the slices into only_<domain> and except_<domain>
// keys next to the overall metrics.
func (r DSTReport) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"joint_accuracy": r.JointAccuracy,
		"slot_f1":        r.SlotF1,
		"slot_precision": r.SlotPrecision,
		"slot_recall":    r.SlotRecall,
	}
	for d, m := range r.Only {
		out["only_"+string(d)] = m
	}
	for d, m := range r.Except {
		out["except_"+string(d)] = m
	}
	return json.Marshal(out)
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encoding: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

// WriteXLSX writes the report as an xlsx workbook with one sheet per
// metric family.
func (r *Report) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("report: renaming sheet: %w", err)
	}
	writeRows(f, "Summary", [][]any{
		{"run_id", r.RunID},
		{"created_at", r.CreatedAt.Format(time.RFC3339)},
		{"version", r.Version},
	})

	if r.BLEU != nil {
		rows := [][]any{{"reference", "bleu"}}
		for _, system := range sortedKeys(r.BLEU) {
			rows = append(rows, []any{system, r.BLEU[system]})
		}
		if err := addSheet(f, "BLEU", rows); err != nil {
			return err
		}
	}

	if r.Success != nil {
		rows := [][]any{{"domain", "inform", "success"}}
		for _, domain := range sortedKeys(r.Success.Inform) {
			rows = append(rows, []any{domain, r.Success.Inform[domain], r.Success.Success[domain]})
		}
		if err := addSheet(f, "Success", rows); err != nil {
			return err
		}
	}

	if r.Richness != nil {
		rows := [][]any{
			{"entropy", r.Richness.Entropy},
			{"cond_entropy", r.Richness.CondEntropy},
			{"avg_lengths", r.Richness.AvgLengths},
			{"msttr", r.Richness.MSTTR},
			{"num_unigrams", r.Richness.NumUnigrams},
			{"num_bigrams", r.Richness.NumBigrams},
			{"num_trigrams", r.Richness.NumTrigrams},
		}
		if err := addSheet(f, "Richness", rows); err != nil {
			return err
		}
	}

	if r.DST != nil {
		rows := [][]any{
			{"slice", "joint_accuracy", "slot_f1", "slot_precision", "slot_recall"},
			metricsRow("all", r.DST.Metrics),
		}
		for _, d := range sortedDomains(r.DST.Only) {
			rows = append(rows, metricsRow("only_"+string(d), r.DST.Only[d]))
		}
		for _, d := range sortedDomains(r.DST.Except) {
			rows = append(rows, metricsRow("except_"+string(d), r.DST.Except[d]))
		}
		if err := addSheet(f, "DST", rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

func metricsRow(label string, m dst.Metrics) []any {
	return []any{label, m.JointAccuracy, m.SlotF1, m.SlotPrecision, m.SlotRecall}
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("report: adding sheet %s: %w", name, err)
	}
	writeRows(f, name, rows)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) {
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				continue
			}
			f.SetCellValue(sheet, cell, value)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedDomains[V any](m map[corpus.Domain]V) []corpus.Domain {
	keys := make([]corpus.Domain, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

package mwzeval

import (
	"os"
	"path/filepath"
	"runtime"
)

// Version identifies a MultiWOZ benchmark release.
type Version string

const (
	// Version22 is MultiWOZ 2.2. All metric families are supported.
	Version22 Version = "22"
	// Version24 is MultiWOZ 2.4. Only DST metrics are supported.
	Version24 Version = "24"
)

// Config holds all configuration for the evaluator.
type Config struct {
	// Version selects the benchmark release. Defaults to Version22.
	Version Version `json:"version"`

	// BLEU enables corpus BLEU against the reference responses.
	BLEU bool `json:"bleu"`
	// Success enables the Inform and Success rate metrics.
	Success bool `json:"success"`
	// Richness enables the lexical richness statistics.
	Richness bool `json:"richness"`
	// DST enables dialogue-state-tracking metrics.
	DST bool `json:"dst"`

	// LOOCV extends DST metrics with per-domain only_/except_ slices.
	LOOCV bool `json:"loocv"`

	// DisableNormalization skips the slot-name/value and response
	// normalization pass over the input corpus.
	DisableNormalization bool `json:"disable_normalization"`

	// FuzzyThreshold is the partial-ratio score a slot value pair must
	// exceed to count as matching. Defaults to 95.
	FuzzyThreshold int `json:"fuzzy_threshold"`

	// DataDir is where benchmark data (goals, gold states, references,
	// venue database) is cached. If empty, ~/.mwzeval is used.
	DataDir string `json:"data_dir"`

	// Workers bounds the number of dialogues scored in parallel.
	// Defaults to GOMAXPROCS.
	Workers int `json:"workers"`
}

// DefaultConfig returns a Config that computes every metric family for
// MultiWOZ 2.2 with data cached under ~/.mwzeval.
func DefaultConfig() Config {
	return Config{
		Version:        Version22,
		BLEU:           true,
		Success:        true,
		Richness:       true,
		DST:            true,
		FuzzyThreshold: 95,
		Workers:        runtime.GOMAXPROCS(0),
	}
}

// resolveDataDir computes the cache directory for benchmark data.
func (c *Config) resolveDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mwzeval" // fallback to cwd
	}
	return filepath.Join(home, ".mwzeval")
}

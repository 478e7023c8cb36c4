// Command evaluate scores a dialogue system's predictions against the
// MultiWOZ benchmark.
//
// Usage:
//
//	go run ./cmd/evaluate \
//	  --input predictions.json \
//	  --bleu --success --richness --dst --loocv \
//	  --output report.json --xlsx report.xlsx
//
// The input file maps dialogue ids to turn lists, each turn carrying at
// least a "response" and optionally "state" and "active_domains".
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mwzeval "github.com/WeixuanZ/MultiWOZ-Evaluation"
)

func main() {
	var (
		inputPath   = flag.String("input", "", "Path to the predictions JSON file (required)")
		version     = flag.String("version", "22", "Benchmark version: 22 or 24")
		bleu        = flag.Bool("bleu", false, "Compute corpus BLEU")
		successFlag = flag.Bool("success", false, "Compute Inform & Success rates")
		richness    = flag.Bool("richness", false, "Compute lexical richness statistics")
		dstFlag     = flag.Bool("dst", false, "Compute dialogue-state-tracking metrics")
		loocv       = flag.Bool("loocv", false, "Add per-domain only_/except_ DST slices")
		all         = flag.Bool("all", false, "Shorthand for -bleu -success -richness -dst")
		noNorm      = flag.Bool("no-normalization", false, "Skip slot and response normalization")
		dataDir     = flag.String("data-dir", "", "Benchmark data cache directory (default ~/.mwzeval)")
		workers     = flag.Int("workers", 0, "Dialogues scored in parallel (default GOMAXPROCS)")
		outputPath  = flag.String("output", "", "Path to write the JSON report (default stdout)")
		xlsxPath    = flag.String("xlsx", "", "Path to additionally write an xlsx report")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "error: -input is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := mwzeval.DefaultConfig()
	cfg.Version = mwzeval.Version(*version)
	cfg.BLEU = *bleu || *all
	cfg.Success = *successFlag || *all
	cfg.Richness = *richness || *all
	cfg.DST = *dstFlag || *all
	cfg.LOOCV = *loocv
	cfg.DisableNormalization = *noNorm
	cfg.DataDir = *dataDir
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if err := run(cfg, *inputPath, *outputPath, *xlsxPath); err != nil {
		slog.Error("evaluate: failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg mwzeval.Config, inputPath, outputPath, xlsxPath string) error {
	ctx := context.Background()

	input, err := mwzeval.LoadCorpus(inputPath)
	if err != nil {
		return err
	}
	slog.Info("evaluate: input loaded", "dialogues", len(input))

	evaluator, err := mwzeval.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer evaluator.Close()

	rep, err := evaluator.Evaluate(ctx, input)
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := rep.WriteJSON(outputPath); err != nil {
			return err
		}
		slog.Info("evaluate: report written", "path", outputPath)
	} else {
		encoded, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
	}

	if xlsxPath != "" {
		if err := rep.WriteXLSX(xlsxPath); err != nil {
			return err
		}
		slog.Info("evaluate: workbook written", "path", xlsxPath)
	}
	return nil
}

// Command msbuild chains parse, merge, and stats in a single process —
// useful for small collections and integration tests where spinning up
// three separate binaries is unnecessary ceremony.
//
// Usage:
//
//	msbuild -config configs/development.yaml [-input collection.tsv]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/logger"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/merge"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/parser"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/stats"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	inputPath := flag.String("input", "", "path to the TSV collection (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Parser.InputPath = *inputPath
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("msbuild")

	if cfg.Parser.InputPath == "" {
		log.Error("no input path configured; pass -input or set parser.inputPath")
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.Parser.OutputDir, 0755); err != nil {
		log.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	f, err := os.Open(cfg.Parser.InputPath)
	if err != nil {
		log.Error("failed to open input collection", "path", cfg.Parser.InputPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	log.Info("stage 1/3: parsing", "input", cfg.Parser.InputPath)
	pstats, err := parser.Run(bufio.NewReaderSize(f, 1<<20), cfg.Parser.OutputDir, cfg.Parser.FlushBytes, log)
	if err != nil {
		log.Error("parse stage failed", "error", err)
		os.Exit(1)
	}
	log.Info("parse stage done", "docs_accepted", pstats.DocsAccepted, "partitions", pstats.Partitions)

	partitions, err := listPartitions(cfg.Parser.OutputDir)
	if err != nil {
		log.Error("failed to list partitions", "error", err)
		os.Exit(1)
	}

	log.Info("stage 2/3: merging", "partitions", len(partitions))
	mstats, err := merge.Run(partitions, cfg.Merge.IndexPath, cfg.Merge.LexiconPath, log)
	if err != nil {
		log.Error("merge stage failed", "error", err)
		os.Exit(1)
	}
	log.Info("merge stage done", "terms_emitted", mstats.TermsEmitted)

	log.Info("stage 3/3: computing corpus statistics")
	corpus, err := stats.ComputeFromDocLengths(cfg.Stats.DocLengthsPath, log)
	if err != nil {
		log.Error("stats stage failed", "error", err)
		os.Exit(1)
	}
	if err := stats.WriteAvgDL(cfg.Stats.AvgDLPath, corpus); err != nil {
		log.Error("failed to write avgdl", "error", err)
		os.Exit(1)
	}

	log.Info("build complete",
		"total_docs", corpus.TotalDocs,
		"avgdl", corpus.AvgDL,
		"terms", mstats.TermsEmitted,
	)
}

func listPartitions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) >= len("intermediate_") && name[:len("intermediate_")] == "intermediate_" {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

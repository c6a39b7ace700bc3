// Command msmerge performs the external k-way merge over msparse's
// intermediate_*.txt partitions, producing final_index.bin and
// lexicon.txt.
//
// Usage:
//
//	msmerge -config configs/development.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/logger"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/merge"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/telemetry/events"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/telemetry/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("msmerge")

	partitions, err := listPartitions(cfg.Merge.PartitionDir)
	if err != nil {
		log.Error("failed to list partitions", "dir", cfg.Merge.PartitionDir, "error", err)
		os.Exit(1)
	}
	if len(partitions) == 0 {
		log.Error("no intermediate partitions found", "dir", cfg.Merge.PartitionDir)
		os.Exit(1)
	}
	log.Info("merging partitions", "count", len(partitions))

	db, err := catalog.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx := context.Background()
	db.EnsureSchema(ctx)
	runID, _ := db.StartRun(ctx, "merge", cfg.Merge.PartitionDir)

	publisher := events.NewPublisher(cfg.Kafka)
	defer publisher.Close()
	m := metrics.New()

	stats, err := merge.Run(partitions, cfg.Merge.IndexPath, cfg.Merge.LexiconPath, log)
	if err != nil {
		log.Error("merge run failed", "error", err)
		db.FinishRun(ctx, runID, 0, 0, err)
		os.Exit(1)
	}

	m.TermsMergedTotal.Add(float64(stats.TermsEmitted))
	m.MergeBytesWritten.Add(float64(stats.BytesWritten))

	log.Info("merge complete",
		"terms_emitted", stats.TermsEmitted,
		"postings_emitted", stats.PostingsEmitted,
		"bytes_written", stats.BytesWritten,
	)

	publisher.Publish(ctx, events.Event{
		Kind:  events.MergeCompleted,
		Stage: "merge",
		Detail: map[string]any{
			"terms_emitted":    stats.TermsEmitted,
			"postings_emitted": stats.PostingsEmitted,
		},
	})

	db.FinishRun(ctx, runID, 0, int64(stats.TermsEmitted), nil)
}

// listPartitions returns every intermediate_*.txt file in dir, sorted
// for deterministic merge ordering across runs.
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

// Command msstats computes total document count and average document
// length from doc_lengths.txt and writes avgdl.txt, the last artifact
// msquery needs before it can serve BM25 scores.
//
// Usage:
//
//	msstats -config configs/development.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/logger"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/telemetry/events"
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
	log := logger.WithComponent("msstats")

	db, err := catalog.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx := context.Background()
	db.EnsureSchema(ctx)
	runID, _ := db.StartRun(ctx, "stats", cfg.Stats.DocLengthsPath)

	publisher := events.NewPublisher(cfg.Kafka)
	defer publisher.Close()

	corpus, err := stats.ComputeFromDocLengths(cfg.Stats.DocLengthsPath, log)
	if err != nil {
		log.Error("stats computation failed", "error", err)
		db.FinishRun(ctx, runID, 0, 0, err)
		os.Exit(1)
	}

	if err := stats.WriteAvgDL(cfg.Stats.AvgDLPath, corpus); err != nil {
		log.Error("failed to write avgdl", "error", err)
		db.FinishRun(ctx, runID, int64(corpus.TotalDocs), 0, err)
		os.Exit(1)
	}

	log.Info("stats complete",
		"total_docs", corpus.TotalDocs,
		"total_tokens", corpus.TotalTokens,
		"avgdl", corpus.AvgDL,
	)

	publisher.Publish(ctx, events.Event{
		Kind:  events.StatsComputed,
		Stage: "stats",
		Detail: map[string]any{
			"total_docs": corpus.TotalDocs,
			"avgdl":      corpus.AvgDL,
		},
	})

	db.FinishRun(ctx, runID, int64(corpus.TotalDocs), 0, nil)
}

// Command msparse streams a tab-separated docID/text collection into a
// passage store, page table, doc-lengths file, and a set of term-sorted
// intermediate partitions ready for msmerge.
//
// Usage:
//
//	msparse -config configs/development.yaml [-input collection.tsv]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/apperrors"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/logger"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/parser"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/telemetry/events"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/telemetry/metrics"
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
	log := logger.WithComponent("msparse")

	if cfg.Parser.InputPath == "" {
		log.Error("no input path configured; pass -input or set parser.inputPath")
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.Parser.OutputDir, 0755); err != nil {
		log.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	db, err := catalog.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure catalog schema", "error", err)
	}
	runID, err := db.StartRun(ctx, "parse", cfg.Parser.InputPath)
	if err != nil {
		log.Error("failed to record run start", "error", err)
	}

	publisher := events.NewPublisher(cfg.Kafka)
	defer publisher.Close()

	m := metrics.New()

	f, err := os.Open(cfg.Parser.InputPath)
	if err != nil {
		log.Error("failed to open input collection", "path", cfg.Parser.InputPath, "error", err)
		finishRun(ctx, db, runID, 0, 0, apperrors.Wrap(apperrors.ErrIOOpen, "parse", err))
		os.Exit(1)
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, 1<<20)
	stats, err := parser.Run(reader, cfg.Parser.OutputDir, cfg.Parser.FlushBytes, log)
	if err != nil {
		log.Error("parse run failed", "error", err)
		finishRun(ctx, db, runID, stats.DocsAccepted, 0, err)
		os.Exit(1)
	}

	m.DocsParsedTotal.Add(float64(stats.DocsAccepted))
	m.ParseTokensTotal.Add(float64(stats.TotalTokens))
	for i := 0; i < stats.Partitions; i++ {
		m.PartitionsFlushed.Inc()
	}

	log.Info("parse complete",
		"docs_accepted", stats.DocsAccepted,
		"lines_skipped", stats.LinesSkipped,
		"total_tokens", stats.TotalTokens,
		"partitions", stats.Partitions,
	)

	if err := publisher.Publish(ctx, events.Event{
		Kind:  events.ParseCompleted,
		Stage: "parse",
		Detail: map[string]any{
			"docs_accepted": stats.DocsAccepted,
			"partitions":    stats.Partitions,
		},
	}); err != nil {
		log.Warn("failed to publish parse-completed event", "error", err)
	}

	finishRun(ctx, db, runID, stats.DocsAccepted, 0, nil)
}

func finishRun(ctx context.Context, db *catalog.Client, runID int64, docCount, termCount int64, runErr error) {
	if err := db.FinishRun(ctx, runID, docCount, termCount, runErr); err != nil {
		slog.Default().Warn("failed to record run completion", "error", err)
	}
}

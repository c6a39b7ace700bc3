// Command msbatch runs every query in a TSV query set against a built
// index and emits results in TREC run format, for offline relevance
// evaluation (trec_eval and similar tooling).
//
// Usage:
//
//	msbatch -config configs/development.yaml [-queries queries.tsv] [-out run.trec]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/logger"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/plan"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/telemetry/events"
)

// runTag identifies this system's run in the TREC output, per the
// eval run-name convention (qid Q0 docID rank score run_tag).
const runTag = "BM25"

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	queriesPath := flag.String("queries", "", "path to queries.tsv (overrides config)")
	outPath := flag.String("out", "", "path to write the TREC run file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *queriesPath != "" {
		cfg.Query.QueriesPath = *queriesPath
	}
	if *outPath != "" {
		cfg.Query.RunOutputPath = *outPath
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("msbatch")

	handles, err := query.Load(cfg.Query, log)
	if err != nil {
		log.Error("failed to load query handles", "error", err)
		os.Exit(1)
	}
	defer handles.Close()

	queries, err := loadQueries(cfg.Query.QueriesPath)
	if err != nil {
		log.Error("failed to load queries", "path", cfg.Query.QueriesPath, "error", err)
		os.Exit(1)
	}
	log.Info("loaded queries", "count", len(queries))

	out, err := os.Create(cfg.Query.RunOutputPath)
	if err != nil {
		log.Error("failed to create run output file", "path", cfg.Query.RunOutputPath, "error", err)
		os.Exit(1)
	}
	defer out.Close()
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	publisher := events.NewPublisher(cfg.Kafka)
	defer publisher.Close()

	topK := cfg.Query.BatchTopK
	if topK <= 0 {
		topK = 1000
	}

	var executed int
	for _, q := range queries {
		parsed := plan.Parse(q.text, plan.Disjunctive)
		results, err := handles.Engine.Search(parsed, topK)
		if err != nil {
			log.Warn("query failed, skipping", "qid", q.id, "error", err)
			continue
		}
		for rank, r := range results {
			fmt.Fprintf(writer, "%s Q0 %d %d %.6f %s\n", q.id, r.DocID, rank+1, r.Score, runTag)
		}
		executed++
	}

	log.Info("batch run complete", "queries_executed", executed, "output", cfg.Query.RunOutputPath)

	publisher.Publish(context.Background(), events.Event{
		Kind:  events.QueryExecuted,
		Stage: "batch",
		Detail: map[string]any{
			"queries_executed": executed,
			"top_k":            topK,
		},
	})
}

type batchQuery struct {
	id   string
	text string
}

// loadQueries reads a qid\tquery_text TSV file, skipping its one-line
// header. Malformed lines are reported and skipped, never fatal.
func loadQueries(path string) ([]batchQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var queries []batchQuery
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue // header
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			slog.Warn("msbatch: skipping query line without a tab", "path", path, "line", lineNo)
			continue
		}
		if _, err := strconv.ParseUint(parts[0], 10, 64); err != nil {
			slog.Warn("msbatch: skipping query line with unparseable qid", "path", path, "line", lineNo)
			continue
		}
		queries = append(queries, batchQuery{id: parts[0], text: parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return queries, nil
}

// Command msquery serves BM25 search over a built index, either as an
// interactive console REPL or as an HTTP API exposing
// GET /api/v1/search, /health/live, /health/ready, and (when
// metrics.enabled is set) /metrics.
//
// Usage:
//
//	msquery -config configs/development.yaml [-http]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/logger"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/cache"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/plan"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/session"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/telemetry/health"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/telemetry/httpmw"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/telemetry/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	httpMode := flag.Bool("http", false, "serve the HTTP search API instead of the console REPL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("msquery")

	handles, err := query.Load(cfg.Query, log)
	if err != nil {
		log.Error("failed to load query handles", "error", err)
		os.Exit(1)
	}
	defer handles.Close()

	resultCache, err := cache.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to cache", "error", err)
		os.Exit(1)
	}
	defer resultCache.Close()

	if *httpMode {
		runHTTPServer(cfg, handles, resultCache, log)
		return
	}
	runREPL(cfg, handles, resultCache, log)
}

func runREPL(cfg *config.Config, handles *query.Handles, c *cache.Cache, log *slog.Logger) {
	sess := session.New(handles.Engine, c, handles.PageTable, handles.Store, plan.Disjunctive, cfg.Query.TopK, log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := sess.Run(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error("session ended with error", "error", err)
		os.Exit(1)
	}
}

func runHTTPServer(cfg *config.Config, handles *query.Handles, c *cache.Cache, log *slog.Logger) {
	m := metrics.New()
	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if handles.Engine == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "engine not loaded"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", searchHandler(handles, c, cfg.Query, m, log))
	mux.HandleFunc("/health/live", checker.LiveHandler())
	mux.HandleFunc("/health/ready", checker.ReadyHandler())
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", metrics.Handler())
	}

	handler := httpmw.Chain(mux, httpmw.RequestID, httpmw.Timeout(10*time.Second))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Query.HTTPPort),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("msquery http api listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

type searchResponse struct {
	Query   string         `json:"query"`
	Mode    string         `json:"mode"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Rank    int     `json:"rank"`
	DocID   uint32  `json:"doc_id"`
	Score   float64 `json:"score"`
	Passage string  `json:"passage,omitempty"`
}

func searchHandler(handles *query.Handles, c *cache.Cache, qcfg config.QueryConfig, m *metrics.Metrics, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		q := r.URL.Query().Get("q")
		if q == "" {
			http.Error(w, "missing required query parameter 'q'", http.StatusBadRequest)
			return
		}
		mode := plan.Disjunctive
		if r.URL.Query().Get("mode") == "and" {
			mode = plan.Conjunctive
		}
		topK := qcfg.TopK
		if v := r.URL.Query().Get("topk"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				topK = n
			}
		}

		sess := session.New(handles.Engine, c, handles.PageTable, handles.Store, mode, topK, log)
		rendered, err := sess.Execute(r.Context(), q)
		m.QueryLatency.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
		m.QueriesTotal.WithLabelValues(mode.String()).Inc()
		if err != nil {
			log.Error("search failed", "query", q, "error", err)
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}
		m.QueryResultsCount.Observe(float64(len(rendered)))

		resp := searchResponse{Query: q, Mode: mode.String()}
		for _, res := range rendered {
			resp.Results = append(resp.Results, searchResult{
				Rank: res.Rank, DocID: res.DocID, Score: res.Score, Passage: res.Passage,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

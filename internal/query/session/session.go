// Package session drives the interactive query REPL: read a line,
// execute it, emit ranked results, repeat until "exit" or EOF.
// Grounded on original_source/query_processor.cpp's console loop
// (prompt -> getline -> rank -> print top-k -> repeat until "exit"),
// restated as an explicit state machine in the teacher's idiom of
// small, independently testable components.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/passages"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/cache"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/exec"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/plan"
)

// State is the session's current phase.
type State int

const (
	Idle State = iota
	ReadingQuery
	Executing
	Emitting
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ReadingQuery:
		return "reading_query"
	case Executing:
		return "executing"
	case Emitting:
		return "emitting"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// RenderedResult is one result ready for display, with its passage text
// resolved when possible.
type RenderedResult struct {
	Rank    int
	DocID   uint32
	Score   float64
	Passage string
}

// Session holds everything needed to run the REPL over one input/output
// pair.
type Session struct {
	engine    *exec.Engine
	cache     *cache.Cache
	pageTable *passages.PageTable
	store     *passages.Reader
	mode      plan.Mode
	topK      int
	logger    *slog.Logger
	state     State
}

// New constructs a Session. store may be nil if passage rendering is
// unavailable; results then carry an empty Passage.
func New(engine *exec.Engine, c *cache.Cache, pageTable *passages.PageTable, store *passages.Reader, mode plan.Mode, topK int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		engine:    engine,
		cache:     c,
		pageTable: pageTable,
		store:     store,
		mode:      mode,
		topK:      topK,
		logger:    logger,
		state:     Idle,
	}
}

// State reports the session's current phase.
func (s *Session) State() State { return s.state }

// exitCommand terminates the REPL, matching the original console tool.
const exitCommand = "exit"

// Run drives the Idle -> ReadingQuery -> Executing -> Emitting loop
// until the reader hits EOF or a line equal to "exit", writing a prompt
// and results to w as it goes.
func (s *Session) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for {
		s.state = Idle
		fmt.Fprint(w, "Enter query (or type 'exit' to quit): ")

		s.state = ReadingQuery
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == exitCommand {
			break
		}
		if line == "" {
			continue
		}

		s.state = Executing
		results, err := s.Execute(ctx, line)
		if err != nil {
			fmt.Fprintf(w, "query failed: %v\n", err)
			continue
		}

		s.state = Emitting
		s.emit(w, results)
	}
	s.state = Terminated
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading query input: %w", err)
	}
	return nil
}

// Execute runs one query line through parsing, the cache, and ranking,
// returning rendered results with passage text resolved where possible.
func (s *Session) Execute(ctx context.Context, line string) ([]RenderedResult, error) {
	q := plan.Parse(line, s.mode)
	if len(q.Terms) == 0 {
		return nil, nil
	}

	results, _, err := s.cache.GetOrCompute(ctx, line, int(s.mode), s.topK, func() ([]exec.Result, error) {
		return s.engine.Search(q, s.topK)
	})
	if err != nil {
		return nil, fmt.Errorf("executing query %q: %w", line, err)
	}

	rendered := make([]RenderedResult, len(results))
	for i, r := range results {
		rendered[i] = RenderedResult{Rank: i + 1, DocID: r.DocID, Score: r.Score}
		if s.pageTable == nil || s.store == nil {
			continue
		}
		entry, ok := s.pageTable.Lookup(r.DocID)
		if !ok {
			continue
		}
		text, err := s.store.Fetch(entry)
		if err != nil {
			s.logger.Warn("session: failed to fetch passage", "docID", r.DocID, "error", err)
			continue
		}
		rendered[i].Passage = string(text)
	}
	return rendered, nil
}

func (s *Session) emit(w io.Writer, results []RenderedResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching documents found.")
		return
	}
	fmt.Fprintf(w, "Top %d results:\n", len(results))
	for _, r := range results {
		passage := r.Passage
		if passage == "" {
			passage = "[Not Found]"
		}
		fmt.Fprintf(w, "%d. DocID: %d | Score: %.6f | Passage: %s\n", r.Rank, r.DocID, r.Score, passage)
	}
}

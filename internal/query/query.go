// Package query assembles the handles cmd/msquery and cmd/msbatch need
// — lexicon, index reader, page table, passage store, doc lengths, and
// avgdl — into a ready exec.Engine. Grounded on
// original_source/query_processor.cpp's load_lexicon / load_doc_lengths
// / load_page_table sequence, restated as Go loaders returning typed
// handles instead of populating global maps.
package query

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/index"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/passages"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/exec"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/stats"
)

// Handles bundles every open resource a query session needs. Close
// releases the index and passage file descriptors.
type Handles struct {
	Engine    *exec.Engine
	PageTable *passages.PageTable
	Store     *passages.Reader
	idx       *index.Reader
}

func (h *Handles) Close() error {
	var firstErr error
	if h.idx != nil {
		if err := h.idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if h.Store != nil {
		if err := h.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LoadDocLengths reads doc_lengths.txt into a docID -> token_count map.
// Malformed lines are reported and skipped (RecordParseError).
func LoadDocLengths(path string, logger *slog.Logger) (map[uint32]uint32, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	lengths := make(map[uint32]uint32)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			logger.Warn("query: skipping malformed doc_lengths line", "path", path, "line", lineNo)
			continue
		}
		docID, err1 := strconv.ParseUint(fields[0], 10, 32)
		length, err2 := strconv.ParseUint(fields[1], 10, 32)
		if err1 != nil || err2 != nil {
			logger.Warn("query: skipping unparseable doc_lengths line", "path", path, "line", lineNo)
			continue
		}
		lengths[uint32(docID)] = uint32(length)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lengths, nil
}

// Load opens every file cfg.Query names and assembles a ready-to-query
// Handles. N (total documents) is always derived from len(docLengths),
// never from a configured constant.
func Load(cfg config.QueryConfig, logger *slog.Logger) (*Handles, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lex, err := lexicon.Load(cfg.LexiconPath, logger)
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}
	docLengths, err := LoadDocLengths(cfg.DocLengthsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("loading doc lengths: %w", err)
	}
	pageTable, err := passages.LoadPageTable(cfg.PageTablePath, logger)
	if err != nil {
		return nil, fmt.Errorf("loading page table: %w", err)
	}
	avgdl, err := stats.LoadAvgDL(cfg.AvgDLPath)
	if err != nil {
		return nil, fmt.Errorf("loading avgdl: %w", err)
	}

	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("opening final index: %w", err)
	}
	store, err := passages.OpenReader(cfg.PassagesPath)
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("opening passage store: %w", err)
	}

	engine, err := exec.NewEngine(lex, idx, docLengths, avgdl, cfg.K1, cfg.B, logger)
	if err != nil {
		idx.Close()
		store.Close()
		return nil, fmt.Errorf("constructing query engine: %w", err)
	}

	logger.Info("query handles loaded",
		"terms", lex.Len(),
		"documents", len(docLengths),
		"avgdl", avgdl,
	)
	return &Handles{Engine: engine, PageTable: pageTable, Store: store, idx: idx}, nil
}

// Package exec scores a query's term postings lists with BM25, summing
// each term's contribution into a per-document score map, and ranks the
// results. Grounded on the
// teacher's searcher/ranker.Ranker (internal/searcher/ranker/ranker.go)
// for the scoring shape and searcher/merger.Merger
// (internal/searcher/merger/merger.go) for top-k selection, rewritten
// to the BM25 constants and IDF formula in
// original_source/query_processor.cpp (k1=1.5, b=0.75) rather than the
// teacher's k1=1.2.
package exec

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/index"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/plan"
)

// DefaultK1 and DefaultB are the spec's BM25 constants.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Result is one ranked document.
type Result struct {
	DocID uint32
	Score float64
}

// Engine holds everything needed to run BM25-ranked queries: the
// lexicon, a seekable index reader, per-document lengths, and corpus
// statistics. It is a pure function of (query, mode) given these
// handles — no mutable state is touched during Search.
type Engine struct {
	lex        *lexicon.Lexicon
	idx        *index.Reader
	docLengths map[uint32]uint32
	totalDocs  int
	avgdl      float64
	k1, b      float64
	logger     *slog.Logger
}

// NewEngine constructs a query engine. N (total documents) is always
// len(docLengths), the doc-lengths table actually loaded.
func NewEngine(lex *lexicon.Lexicon, idx *index.Reader, docLengths map[uint32]uint32, avgdl, k1, b float64, logger *slog.Logger) (*Engine, error) {
	if avgdl <= 0 {
		return nil, fmt.Errorf("exec: avgdl must be positive, got %f", avgdl)
	}
	if len(docLengths) == 0 {
		return nil, fmt.Errorf("exec: doc lengths table is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b < 0 || b > 1 {
		b = DefaultB
	}
	return &Engine{
		lex:        lex,
		idx:        idx,
		docLengths: docLengths,
		totalDocs:  len(docLengths),
		avgdl:      avgdl,
		k1:         k1,
		b:          b,
		logger:     logger,
	}, nil
}

// idf is the BM25 Robertson/Sparck-Jones inverse document frequency,
// matching original_source/query_processor.cpp's calculate_idf.
func (e *Engine) idf(docFreq int) float64 {
	n := float64(e.totalDocs)
	df := float64(docFreq)
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

func (e *Engine) termScore(idf float64, tf, docLen uint32) float64 {
	ftf := float64(tf)
	fdl := float64(docLen)
	numerator := ftf * (e.k1 + 1)
	denominator := ftf + e.k1*(1-e.b+e.b*fdl/e.avgdl)
	return idf * numerator / denominator
}

// Search ranks documents against q and returns up to topK results in
// descending score order, ties broken by ascending docID for
// determinism. Terms absent from the lexicon, or whose postings fail
// to decode, contribute nothing and do not abort the query
// (ConsistencyError: skip this term).
func (e *Engine) Search(q plan.Query, topK int) ([]Result, error) {
	type activeTerm struct {
		docIDs []uint32
		freqs  []uint32
		idf    float64
	}
	active := make([]activeTerm, 0, len(q.Terms))
	for _, term := range q.Terms {
		entry, ok := e.lex.Lookup(term)
		if !ok {
			continue
		}
		postings, err := e.idx.Fetch(entry)
		if err != nil {
			e.logger.Warn("exec: skipping term with undecodable postings", "term", term, "error", err)
			continue
		}
		active = append(active, activeTerm{
			docIDs: postings.DocIDs,
			freqs:  postings.Freqs,
			idf:    e.idf(int(entry.DocFrequency)),
		})
	}
	if len(active) == 0 {
		return nil, nil
	}

	scores := make(map[uint32]float64)
	matches := make(map[uint32]int)
	for _, t := range active {
		for i, docID := range t.docIDs {
			docLen, ok := e.docLengths[docID]
			if !ok {
				e.logger.Warn("exec: posting references unknown docID, skipping", "docID", docID)
				continue
			}
			scores[docID] += e.termScore(t.idf, t.freqs[i], docLen)
			matches[docID]++
		}
	}

	if q.Mode == plan.Conjunctive {
		for docID, count := range matches {
			if count != len(active) {
				delete(scores, docID)
			}
		}
	}

	results := make([]Result, 0, len(scores))
	for docID, score := range scores {
		results = append(results, Result{DocID: docID, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

package exec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/index"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/plan"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/varbyte"
)

// buildFixture writes a tiny final_index.bin with two terms ("fox",
// "dog") and returns a ready Engine plus the index file for cleanup.
func buildFixture(t *testing.T) (*Engine, func()) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "final_index.bin")

	// fox: docs 1 (tf=1), 3 (tf=2)
	// dog: docs 1 (tf=1), 2 (tf=3)
	foxDocIDs := varbyte.EncodeList([]uint32{1, 2}) // gaps: 1, then +2 -> doc 3
	foxFreqs := varbyte.EncodeList([]uint32{1, 2})
	dogDocIDs := varbyte.EncodeList([]uint32{1, 1}) // gaps: 1, then +1 -> doc 2
	dogFreqs := varbyte.EncodeList([]uint32{1, 3})

	var buf []byte
	foxEntry := lexicon.Entry{Term: "fox", DocIDOffset: uint64(len(buf)), DocIDLength: uint64(len(foxDocIDs)), DocFrequency: 2}
	buf = append(buf, foxDocIDs...)
	foxEntry.FreqOffset = uint64(len(buf))
	foxEntry.FreqLength = uint64(len(foxFreqs))
	buf = append(buf, foxFreqs...)

	dogEntry := lexicon.Entry{Term: "dog", DocIDOffset: uint64(len(buf)), DocIDLength: uint64(len(dogDocIDs)), DocFrequency: 2}
	buf = append(buf, dogDocIDs...)
	dogEntry.FreqOffset = uint64(len(buf))
	dogEntry.FreqLength = uint64(len(dogFreqs))
	buf = append(buf, dogFreqs...)

	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	idx, err := index.Open(path)
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}

	lex := lexicon.New(map[string]lexicon.Entry{
		"fox": foxEntry,
		"dog": dogEntry,
	})

	docLengths := map[uint32]uint32{1: 10, 2: 8, 3: 12}
	engine, err := NewEngine(lex, idx, docLengths, 10.0, DefaultK1, DefaultB, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, func() { idx.Close() }
}

func TestSearchDisjunctiveRanksAllMatchingDocs(t *testing.T) {
	engine, cleanup := buildFixture(t)
	defer cleanup()

	q := plan.Parse("fox dog", plan.Disjunctive)
	results, err := engine.Search(q, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (docs 1,2,3)", len(results))
	}
	seen := make(map[uint32]bool)
	for _, r := range results {
		seen[r.DocID] = true
		if r.Score <= 0 {
			t.Errorf("doc %d score = %f, want positive", r.DocID, r.Score)
		}
	}
	for _, want := range []uint32{1, 2, 3} {
		if !seen[want] {
			t.Errorf("expected doc %d among results", want)
		}
	}
}

func TestSearchConjunctiveOnlyKeepsDocsMatchingEveryTerm(t *testing.T) {
	engine, cleanup := buildFixture(t)
	defer cleanup()

	q := plan.Parse("fox dog", plan.Conjunctive)
	results, err := engine.Search(q, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].DocID != 1 {
		t.Fatalf("results = %v, want exactly doc 1 (only doc containing both fox and dog)", results)
	}
}

func TestSearchRespectsTopK(t *testing.T) {
	engine, cleanup := buildFixture(t)
	defer cleanup()

	q := plan.Parse("fox dog", plan.Disjunctive)
	results, err := engine.Search(q, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestSearchUnknownTermContributesNothing(t *testing.T) {
	engine, cleanup := buildFixture(t)
	defer cleanup()

	q := plan.Parse("nonexistentterm", plan.Disjunctive)
	results, err := engine.Search(q, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0 for an unknown term", len(results))
	}
}

func TestNewEngineRejectsNonPositiveAvgDL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "final_index.bin")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	idx, err := index.Open(path)
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	defer idx.Close()
	lex := lexicon.New(nil)
	_, err = NewEngine(lex, idx, map[uint32]uint32{1: 5}, 0, DefaultK1, DefaultB, nil)
	if err == nil {
		t.Fatal("expected NewEngine to reject a zero avgdl")
	}
}

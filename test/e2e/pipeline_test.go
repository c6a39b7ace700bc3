// Package e2e exercises the full batch pipeline end to end: parse a TSV
// collection, merge the resulting partitions into a final index, compute
// corpus statistics, and query the result — all in-process, against
// temporary directories, with no external services required.
package e2e

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/merge"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/parser"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/exec"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/plan"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/stats"
)

func queryConfigFor(dir string) config.QueryConfig {
	return config.QueryConfig{
		IndexPath:      filepath.Join(dir, "final_index.bin"),
		LexiconPath:    filepath.Join(dir, "lexicon.txt"),
		PageTablePath:  filepath.Join(dir, "page_table.txt"),
		PassagesPath:   filepath.Join(dir, "passages.bin"),
		DocLengthsPath: filepath.Join(dir, "doc_lengths.txt"),
		AvgDLPath:      filepath.Join(dir, "avgdl.txt"),
		K1:             exec.DefaultK1,
		B:              exec.DefaultB,
	}
}

const sampleCollection = `0	the quick brown fox jumps over the lazy dog
1	a slow red fox sleeps under the old oak tree
2	search engines rank documents by relevance to a query
3	the lazy dog sleeps all afternoon in the warm sun
4	bm25 ranking considers term frequency and document length
`

func listPartitions(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var paths []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "intermediate_") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths
}

func TestPipelineParseMergeStatsQuery(t *testing.T) {
	dir := t.TempDir()

	inputPath := filepath.Join(dir, "collection.tsv")
	if err := os.WriteFile(inputPath, []byte(sampleCollection), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(inputPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	pstats, err := parser.Run(bufio.NewReader(f), dir, parser.DefaultFlushBytes, nil)
	if err != nil {
		t.Fatalf("parser.Run: %v", err)
	}
	if pstats.DocsAccepted != 5 {
		t.Fatalf("DocsAccepted = %d, want 5", pstats.DocsAccepted)
	}

	partitions := listPartitions(t, dir)
	if len(partitions) == 0 {
		t.Fatal("expected at least one intermediate partition")
	}

	indexPath := filepath.Join(dir, "final_index.bin")
	lexPath := filepath.Join(dir, "lexicon.txt")
	mstats, err := merge.Run(partitions, indexPath, lexPath, nil)
	if err != nil {
		t.Fatalf("merge.Run: %v", err)
	}
	if mstats.TermsEmitted == 0 {
		t.Fatal("expected at least one merged term")
	}

	docLengthsPath := filepath.Join(dir, "doc_lengths.txt")
	corpus, err := stats.ComputeFromDocLengths(docLengthsPath, nil)
	if err != nil {
		t.Fatalf("ComputeFromDocLengths: %v", err)
	}
	if corpus.TotalDocs != 5 {
		t.Fatalf("TotalDocs = %d, want 5", corpus.TotalDocs)
	}
	avgdlPath := filepath.Join(dir, "avgdl.txt")
	if err := stats.WriteAvgDL(avgdlPath, corpus); err != nil {
		t.Fatalf("WriteAvgDL: %v", err)
	}

	handles, err := query.Load(queryConfigFor(dir), nil)
	if err != nil {
		t.Fatalf("query.Load: %v", err)
	}
	defer handles.Close()

	results, err := handles.Engine.Search(plan.Parse("lazy dog", plan.Disjunctive), 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result for 'lazy dog'")
	}

	found := false
	for _, r := range results {
		if r.DocID == 0 || r.DocID == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected docs 0 or 3 (both mention 'lazy dog') among results: %v", results)
	}

	conjunctive, err := handles.Engine.Search(plan.Parse("lazy dog", plan.Conjunctive), 10)
	if err != nil {
		t.Fatalf("Search (conjunctive): %v", err)
	}
	for _, r := range conjunctive {
		if r.DocID != 0 && r.DocID != 3 {
			t.Errorf("conjunctive search returned doc %d, which doesn't contain both terms", r.DocID)
		}
	}
}

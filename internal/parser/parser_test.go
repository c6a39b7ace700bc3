package parser

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/passages"
)

func TestRunProducesAllArtifacts(t *testing.T) {
	input := strings.Join([]string{
		"1\tthe quick brown fox",
		"2\tthe lazy dog",
		"3\tthe fox and the dog",
	}, "\n") + "\n"

	dir := t.TempDir()
	stats, err := Run(bufio.NewReader(strings.NewReader(input)), dir, DefaultFlushBytes, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.DocsAccepted != 3 {
		t.Errorf("DocsAccepted = %d, want 3", stats.DocsAccepted)
	}
	if stats.LinesSkipped != 0 {
		t.Errorf("LinesSkipped = %d, want 0", stats.LinesSkipped)
	}
	if stats.TotalTokens != 4+3+5 {
		t.Errorf("TotalTokens = %d, want %d", stats.TotalTokens, 4+3+5)
	}
	if stats.Partitions != 1 {
		t.Errorf("Partitions = %d, want 1", stats.Partitions)
	}

	for _, name := range []string{"passages.bin", "page_table.txt", "doc_lengths.txt", "total_tokens.txt", "intermediate_1.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}

	totalTokensBytes, err := os.ReadFile(filepath.Join(dir, "total_tokens.txt"))
	if err != nil {
		t.Fatalf("reading total_tokens.txt: %v", err)
	}
	if strings.TrimSpace(string(totalTokensBytes)) != "12" {
		t.Errorf("total_tokens.txt = %q, want 12", strings.TrimSpace(string(totalTokensBytes)))
	}

	table, err := passages.LoadPageTable(filepath.Join(dir, "page_table.txt"), nil)
	if err != nil {
		t.Fatalf("LoadPageTable: %v", err)
	}
	if table.Len() != 3 {
		t.Errorf("page table Len() = %d, want 3", table.Len())
	}

	reader, err := passages.OpenReader(filepath.Join(dir, "passages.bin"))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reader.Close()
	entry, ok := table.Lookup(1)
	if !ok {
		t.Fatal("expected page table entry for doc 1")
	}
	got, err := reader.Fetch(entry)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != "the quick brown fox" {
		t.Errorf("Fetch(1) = %q, want %q", got, "the quick brown fox")
	}
}

func TestRunSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"1\thello world",
		"no tab here",
		"notanumber\tsome text",
		"2\tanother passage",
	}, "\n") + "\n"

	dir := t.TempDir()
	stats, err := Run(bufio.NewReader(strings.NewReader(input)), dir, DefaultFlushBytes, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.DocsAccepted != 2 {
		t.Errorf("DocsAccepted = %d, want 2", stats.DocsAccepted)
	}
	if stats.LinesSkipped != 2 {
		t.Errorf("LinesSkipped = %d, want 2", stats.LinesSkipped)
	}
}

func TestRunPartitionLinesAreTermSortedWithMergedPostings(t *testing.T) {
	input := strings.Join([]string{
		"1\tfox fox dog",
		"2\tdog cat",
	}, "\n") + "\n"

	dir := t.TempDir()
	if _, err := Run(bufio.NewReader(strings.NewReader(input)), dir, DefaultFlushBytes, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "intermediate_1.txt"))
	if err != nil {
		t.Fatalf("reading intermediate_1.txt: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d partition lines, want 3 (cat, dog, fox)", len(lines))
	}
	terms := make([]string, len(lines))
	for i, line := range lines {
		terms[i] = strings.Split(line, "\t")[0]
	}
	want := []string{"cat", "dog", "fox"}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("term[%d] = %q, want %q (partition must be term-sorted)", i, terms[i], want[i])
		}
	}

	foxFields := strings.Split(lines[2], "\t")
	// "fox" -> term, docid=1, tf=2
	if foxFields[0] != "fox" || foxFields[1] != "1" || foxFields[2] != "2" {
		t.Errorf("fox posting line = %v, want [fox 1 2] (tf must sum within a doc)", foxFields)
	}
}

func TestRunRespectsFlushThreshold(t *testing.T) {
	input := strings.Join([]string{
		"1\taaa",
		"2\tbbb",
		"3\tccc",
	}, "\n") + "\n"

	dir := t.TempDir()
	// Small threshold forces a flush after nearly every line.
	stats, err := Run(bufio.NewReader(strings.NewReader(input)), dir, 6, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Partitions < 2 {
		t.Errorf("Partitions = %d, want at least 2 with a small flush threshold", stats.Partitions)
	}
}

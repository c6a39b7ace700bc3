package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func TestComputeFromDocLengths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc_lengths.txt")
	content := "1\t10\n2\t20\n3\t30\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	corpus, err := ComputeFromDocLengths(path, nil)
	if err != nil {
		t.Fatalf("ComputeFromDocLengths: %v", err)
	}
	if corpus.TotalDocs != 3 {
		t.Errorf("TotalDocs = %d, want 3", corpus.TotalDocs)
	}
	if corpus.TotalTokens != 60 {
		t.Errorf("TotalTokens = %d, want 60", corpus.TotalTokens)
	}
	if corpus.AvgDL != 20 {
		t.Errorf("AvgDL = %f, want 20", corpus.AvgDL)
	}
}

func TestComputeFromDocLengthsSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc_lengths.txt")
	content := "1\t10\nnot a valid line\n2\tbad\n3\t30\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	corpus, err := ComputeFromDocLengths(path, nil)
	if err != nil {
		t.Fatalf("ComputeFromDocLengths: %v", err)
	}
	if corpus.TotalDocs != 2 {
		t.Errorf("TotalDocs = %d, want 2", corpus.TotalDocs)
	}
	if corpus.TotalTokens != 40 {
		t.Errorf("TotalTokens = %d, want 40", corpus.TotalTokens)
	}
}

func TestComputeFromDocLengthsRejectsEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc_lengths.txt")
	if err := os.WriteFile(path, []byte("\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ComputeFromDocLengths(path, nil); err == nil {
		t.Fatal("expected error for an empty corpus (PreconditionError)")
	}
}

func TestWriteAndLoadAvgDL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "avgdl.txt")
	if err := WriteAvgDL(path, Corpus{AvgDL: 42.5}); err != nil {
		t.Fatalf("WriteAvgDL: %v", err)
	}
	got, err := LoadAvgDL(path)
	if err != nil {
		t.Fatalf("LoadAvgDL: %v", err)
	}
	if got != 42.5 {
		t.Errorf("LoadAvgDL = %f, want 42.5", got)
	}
}

func TestLoadAvgDLRejectsNonPositive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "avgdl.txt")
	if err := os.WriteFile(path, []byte("0\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadAvgDL(path); err == nil {
		t.Fatal("expected error loading a non-positive avgdl (PreconditionError)")
	}
}

// Package stats computes and persists the corpus-level statistics BM25
// needs beyond what's in the lexicon: total document count and average
// document length. Grounded on original_source/compute_avgdl.cpp's
// single pass over doc_lengths.txt, restated in the teacher's
// small-single-purpose-package idiom (cf. pkg/health).
package stats

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Corpus holds the statistics derived from doc_lengths.txt.
type Corpus struct {
	TotalDocs   uint64
	TotalTokens uint64
	AvgDL       float64
}

// ComputeFromDocLengths reads docLengthsPath (lines of "docID\tlength")
// and returns the resulting Corpus. Malformed lines are reported and
// skipped; they do not affect TotalDocs or TotalTokens. A corpus with no
// accepted lines is a PreconditionError: callers must reject it before
// using AvgDL, since spec.md forbids an avgdl of zero or the query
// processor's N from being anything but len(docLengths).
func ComputeFromDocLengths(docLengthsPath string, logger *slog.Logger) (Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(docLengthsPath)
	if err != nil {
		return Corpus{}, fmt.Errorf("opening %s: %w", docLengthsPath, err)
	}
	defer f.Close()

	var corpus Corpus
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
			logger.Warn("stats: skipping malformed doc_lengths line", "path", docLengthsPath, "line", lineNo)
			continue
		}
		length, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			logger.Warn("stats: skipping unparseable doc_lengths line", "path", docLengthsPath, "line", lineNo)
			continue
		}
		corpus.TotalDocs++
		corpus.TotalTokens += length
	}
	if err := scanner.Err(); err != nil {
		return Corpus{}, fmt.Errorf("reading %s: %w", docLengthsPath, err)
	}
	if corpus.TotalDocs == 0 {
		return Corpus{}, fmt.Errorf("stats: %s yielded zero documents", docLengthsPath)
	}
	corpus.AvgDL = float64(corpus.TotalTokens) / float64(corpus.TotalDocs)
	return corpus, nil
}

// WriteAvgDL persists corpus.AvgDL to avgdl.txt at path, the format the
// query processor loads at startup.
func WriteAvgDL(path string, corpus Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%f\n", corpus.AvgDL); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadAvgDL reads a previously written avgdl.txt. A value <= 0 is a
// PreconditionError: BM25's length normalisation divides by avgdl.
func LoadAvgDL(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	avgdl, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	if avgdl <= 0 {
		return 0, fmt.Errorf("stats: %s holds a non-positive avgdl (%f)", path, avgdl)
	}
	return avgdl, nil
}

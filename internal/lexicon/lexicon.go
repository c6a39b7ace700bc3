// Package lexicon loads and writes the term -> byte-range mapping that
// locates each term's postings inside final_index.bin. Grounded on the
// teacher's segment.DictEntry (internal/indexer/segment), generalised
// from JSON-in-a-segment-file to the spec's flat whitespace-separated
// lexicon.txt with the canonical six-field schema (spec.md Design Notes:
// earlier 4/5-field schemas cannot support fixed-count VarByte decode).
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Entry is one lexicon record: the byte ranges in final_index.bin holding
// a term's gap-coded docID block and raw tf block, plus its document
// frequency (== the length of the decoded postings list).
type Entry struct {
	Term         string
	DocIDOffset  uint64
	DocIDLength  uint64
	FreqOffset   uint64
	FreqLength   uint64
	DocFrequency uint64
}

// Lexicon is the in-memory, read-only lookup table loaded at query-processor
// startup.
type Lexicon struct {
	entries map[string]Entry
}

// New wraps a pre-populated entry map.
func New(entries map[string]Entry) *Lexicon {
	return &Lexicon{entries: entries}
}

// Lookup returns the entry for term and whether it was present.
func (l *Lexicon) Lookup(term string) (Entry, bool) {
	e, ok := l.entries[term]
	return e, ok
}

// Len returns the number of distinct terms in the lexicon.
func (l *Lexicon) Len() int {
	return len(l.entries)
}

// Writer appends lexicon lines to an underlying io.Writer in term order.
// The merger calls WriteEntry once per emitted term, in lexicographic
// order, as it drains the k-way merge heap.
type Writer struct {
	w   *bufio.Writer
	n   int
	err error
}

// NewWriter wraps w for buffered lexicon line writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteEntry appends one lexicon line: term, docid_offset, docid_length,
// freq_offset, freq_length, doc_freq, whitespace separated.
func (w *Writer) WriteEntry(e Entry) error {
	if w.err != nil {
		return w.err
	}
	_, err := fmt.Fprintf(w.w, "%s\t%d\t%d\t%d\t%d\t%d\n",
		e.Term, e.DocIDOffset, e.DocIDLength, e.FreqOffset, e.FreqLength, e.DocFrequency)
	if err != nil {
		w.err = err
	}
	w.n++
	return err
}

// Flush flushes the underlying buffered writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// Count returns the number of entries written so far.
func (w *Writer) Count() int {
	return w.n
}

// Load reads a complete lexicon.txt into memory, keyed by term. Malformed
// or internally inconsistent lines are a ConsistencyError: they are
// reported via logger and skipped, they never abort the load (only the
// initial file-open failure is fatal).
func Load(path string, logger *slog.Logger) (*Lexicon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon %s: %w", path, err)
	}
	defer f.Close()

	entries := make(map[string]Entry)
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
		if len(fields) != 6 {
			logger.Warn("lexicon: skipping malformed line", "path", path, "line", lineNo, "fields", len(fields))
			continue
		}
		e, err := parseEntry(fields)
		if err != nil {
			logger.Warn("lexicon: skipping inconsistent entry", "path", path, "line", lineNo, "error", err)
			continue
		}
		entries[e.Term] = e
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lexicon %s: %w", path, err)
	}
	return New(entries), nil
}

func parseEntry(fields []string) (Entry, error) {
	var e Entry
	e.Term = fields[0]
	vals := make([]uint64, 5)
	for i, s := range fields[1:] {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return e, fmt.Errorf("field %d (%q): %w", i+1, s, err)
		}
		vals[i] = n
	}
	e.DocIDOffset, e.DocIDLength, e.FreqOffset, e.FreqLength, e.DocFrequency = vals[0], vals[1], vals[2], vals[3], vals[4]
	if e.DocIDOffset+e.DocIDLength != e.FreqOffset {
		return e, fmt.Errorf("term %q: docid_offset+docid_length (%d) != freq_offset (%d)", e.Term, e.DocIDOffset+e.DocIDLength, e.FreqOffset)
	}
	return e, nil
}

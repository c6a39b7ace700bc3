// Package merge performs the external k-way merge over the parser's
// intermediate partition files, producing final_index.bin and
// lexicon.txt. Grounded on the teacher's searcher/merger.Merger
// heap-based merge (internal/searcher/merger/merger.go), generalised
// from a top-k result merge to a term-sorted postings merge, and on
// original_source/indexer.cpp for the merge-and-emit discipline —
// rewritten to emit the spec's six-field gap-coded lexicon schema
// instead of the original's four-field, non-gap-coded one.
package merge

import (
	"bufio"
	"container/heap"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/varbyte"
)

// posting is one (docID, tf) pair read from a partition line.
type posting struct {
	docID uint32
	tf    uint32
}

// termLine is one parsed partition line.
type termLine struct {
	term     string
	postings []posting
}

// partitionCursor reads termLines, in order, from one partition file.
type partitionCursor struct {
	f       *os.File
	scanner *bufio.Scanner
	current termLine
	done    bool
	path    string
}

func newPartitionCursor(path string, logger *slog.Logger) (*partitionCursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening partition %s: %w", path, err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	c := &partitionCursor{f: f, scanner: scanner, path: path}
	if err := c.advance(logger); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// advance loads the next well-formed termLine into c.current, skipping
// malformed lines (RecordParseError: reported and skipped). Closes the
// underlying file once the partition is exhausted.
func (c *partitionCursor) advance(logger *slog.Logger) error {
	for c.scanner.Scan() {
		line := c.scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 || len(fields)%2 != 1 {
			logger.Warn("merge: skipping malformed partition line", "path", c.path, "fields", len(fields))
			continue
		}
		postings := make([]posting, 0, (len(fields)-1)/2)
		malformed := false
		for i := 1; i < len(fields); i += 2 {
			docID, err1 := strconv.ParseUint(fields[i], 10, 32)
			tf, err2 := strconv.ParseUint(fields[i+1], 10, 32)
			if err1 != nil || err2 != nil {
				logger.Warn("merge: skipping partition line with unparseable posting", "path", c.path, "term", fields[0])
				malformed = true
				break
			}
			postings = append(postings, posting{docID: uint32(docID), tf: uint32(tf)})
		}
		if malformed {
			continue
		}
		c.current = termLine{term: fields[0], postings: postings}
		return nil
	}
	if err := c.scanner.Err(); err != nil {
		c.f.Close()
		return fmt.Errorf("reading partition %s: %w", c.path, err)
	}
	c.done = true
	c.f.Close()
	return nil
}

// cursorHeap orders active partitionCursors by their current term, giving
// the merge its lexicographic emission order.
type cursorHeap []*partitionCursor

func (h cursorHeap) Len() int            { return len(h) }
func (h cursorHeap) Less(i, j int) bool  { return h[i].current.term < h[j].current.term }
func (h cursorHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x interface{}) { *h = append(*h, x.(*partitionCursor)) }
func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Stats summarises one merge run.
type Stats struct {
	TermsEmitted    int
	PostingsEmitted int64
	BytesWritten    int64
}

// Run merges partitionPaths — each already term-sorted, as produced by
// internal/parser — into indexPath (final_index.bin) and lexiconPath
// (lexicon.txt), using the six-field gap-coded schema: per term, a
// VarByte gap-coded docID block followed immediately by a VarByte tf
// block, located by lexicon entries derived purely from running byte
// offsets. Postings for the same (term, docID) pair that appear across
// more than one partition are summed, never dropped.
func Run(partitionPaths []string, indexPath, lexiconPath string, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats Stats
	if len(partitionPaths) == 0 {
		return stats, fmt.Errorf("merge: no partition files supplied")
	}

	cursors := make(cursorHeap, 0, len(partitionPaths))
	for _, path := range partitionPaths {
		c, err := newPartitionCursor(path, logger)
		if err != nil {
			return stats, err
		}
		if !c.done {
			cursors = append(cursors, c)
		}
	}
	heap.Init(&cursors)

	indexFile, err := os.Create(indexPath)
	if err != nil {
		return stats, fmt.Errorf("creating %s: %w", indexPath, err)
	}
	defer indexFile.Close()
	indexWriter := bufio.NewWriter(indexFile)

	lexiconFile, err := os.Create(lexiconPath)
	if err != nil {
		return stats, fmt.Errorf("creating %s: %w", lexiconPath, err)
	}
	defer lexiconFile.Close()
	lexWriter := lexicon.NewWriter(lexiconFile)

	var runningOffset uint64
	for cursors.Len() > 0 {
		term := cursors[0].current.term

		// Collect every posting for this term across all cursors
		// currently positioned on it, then pop and advance each.
		merged := make(map[uint32]uint32)
		var withTerm []*partitionCursor
		for cursors.Len() > 0 && cursors[0].current.term == term {
			c := heap.Pop(&cursors).(*partitionCursor)
			for _, p := range c.current.postings {
				merged[p.docID] += p.tf
			}
			withTerm = append(withTerm, c)
		}
		for _, c := range withTerm {
			if err := c.advance(logger); err != nil {
				return stats, err
			}
			if !c.done {
				heap.Push(&cursors, c)
			}
		}

		docIDs := make([]uint32, 0, len(merged))
		for docID := range merged {
			docIDs = append(docIDs, docID)
		}
		sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

		gaps := make([]uint32, len(docIDs))
		var prev uint32
		for i, docID := range docIDs {
			if i == 0 {
				gaps[i] = docID
			} else {
				gaps[i] = docID - prev
			}
			prev = docID
		}
		freqs := make([]uint32, len(docIDs))
		for i, docID := range docIDs {
			freqs[i] = merged[docID]
		}

		docIDBlock := varbyte.EncodeList(gaps)
		freqBlock := varbyte.EncodeList(freqs)

		entry := lexicon.Entry{
			Term:         term,
			DocIDOffset:  runningOffset,
			DocIDLength:  uint64(len(docIDBlock)),
			FreqOffset:   runningOffset + uint64(len(docIDBlock)),
			FreqLength:   uint64(len(freqBlock)),
			DocFrequency: uint64(len(docIDs)),
		}
		if _, err := indexWriter.Write(docIDBlock); err != nil {
			return stats, fmt.Errorf("writing docID block for %q: %w", term, err)
		}
		if _, err := indexWriter.Write(freqBlock); err != nil {
			return stats, fmt.Errorf("writing freq block for %q: %w", term, err)
		}
		if err := lexWriter.WriteEntry(entry); err != nil {
			return stats, fmt.Errorf("writing lexicon entry for %q: %w", term, err)
		}

		runningOffset += uint64(len(docIDBlock)) + uint64(len(freqBlock))
		stats.TermsEmitted++
		stats.PostingsEmitted += int64(len(docIDs))
		stats.BytesWritten = int64(runningOffset)
	}

	if err := indexWriter.Flush(); err != nil {
		return stats, fmt.Errorf("flushing %s: %w", indexPath, err)
	}
	if err := lexWriter.Flush(); err != nil {
		return stats, fmt.Errorf("flushing %s: %w", lexiconPath, err)
	}

	logger.Info("merge run complete",
		"terms_emitted", stats.TermsEmitted,
		"postings_emitted", stats.PostingsEmitted,
		"bytes_written", stats.BytesWritten,
	)
	return stats, nil
}

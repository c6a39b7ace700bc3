// Package index opens final_index.bin and decodes the postings list for
// a lexicon entry: a gap-coded docID block immediately followed by a
// raw tf block, each decoded for exactly doc_freq values — never by
// scanning until the buffer runs out. Grounded on the teacher's
// segment.Reader (internal/indexer/segment/reader.go) offset-seek
// pattern and original_source/query_processor.cpp's
// decode_postings_list.
package index

import (
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/varbyte"
)

// Postings is one term's fully decoded postings list: parallel docID and
// term-frequency slices, in ascending docID order.
type Postings struct {
	DocIDs []uint32
	Freqs  []uint32
}

// Reader seeks into an open final_index.bin to decode postings lists
// located by lexicon entries.
type Reader struct {
	f *os.File
}

// Open opens the final index file at path for random-access reads.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	return &Reader{f: f}, nil
}

func (r *Reader) Close() error {
	return r.f.Close()
}

// Fetch decodes the postings list for entry. It returns an error
// (ConsistencyError: skip this term, never abort the query) if the
// docID block and tf block don't each decode into exactly
// entry.DocFrequency values, or if a gap after the first is zero (the
// docIDs would not strictly increase).
func (r *Reader) Fetch(entry lexicon.Entry) (Postings, error) {
	docIDBlock := make([]byte, entry.DocIDLength)
	if _, err := r.f.ReadAt(docIDBlock, int64(entry.DocIDOffset)); err != nil {
		return Postings{}, fmt.Errorf("reading docID block for %q: %w", entry.Term, err)
	}
	freqBlock := make([]byte, entry.FreqLength)
	if _, err := r.f.ReadAt(freqBlock, int64(entry.FreqOffset)); err != nil {
		return Postings{}, fmt.Errorf("reading freq block for %q: %w", entry.Term, err)
	}

	gaps, err := varbyte.DecodeListN(docIDBlock, int(entry.DocFrequency))
	if err != nil {
		return Postings{}, fmt.Errorf("decoding docID gaps for %q: %w", entry.Term, err)
	}
	freqs, err := varbyte.DecodeListN(freqBlock, int(entry.DocFrequency))
	if err != nil {
		return Postings{}, fmt.Errorf("decoding freqs for %q: %w", entry.Term, err)
	}

	docIDs := make([]uint32, len(gaps))
	var running uint32
	for i, gap := range gaps {
		if i > 0 && gap == 0 {
			return Postings{}, fmt.Errorf("term %q: zero gap at position %d breaks strict docID ordering", entry.Term, i)
		}
		running += gap
		docIDs[i] = running
	}

	return Postings{DocIDs: docIDs, Freqs: freqs}, nil
}

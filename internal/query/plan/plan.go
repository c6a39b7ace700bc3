// Package plan turns a raw query line into the term list the executor
// ranks over. Grounded on the teacher's searcher/parser.Parser
// (internal/searcher/parser/parser.go), stripped of its AND/OR/NOT
// keyword inference and exclude-term handling: the spec's query
// contract carries its conjunctive/disjunctive mode alongside the query
// text, never inferred from operators inside it.
package plan

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/tokenizer"
)

// Mode selects how the executor combines per-term postings lists.
type Mode int

const (
	// Disjunctive ranks every document that contains at least one
	// query term (OR semantics).
	Disjunctive Mode = iota
	// Conjunctive ranks only documents that contain every query term
	// (AND semantics).
	Conjunctive
)

func (m Mode) String() string {
	if m == Conjunctive {
		return "conjunctive"
	}
	return "disjunctive"
}

// Query is a tokenized, deduplicated query ready for execution.
type Query struct {
	Raw   string
	Mode  Mode
	Terms []string
}

// Parse tokenizes raw the same way the parser tokenizes passages, then
// deduplicates terms while preserving first-occurrence order — a
// repeated query term contributes its postings list to scoring only
// once.
func Parse(raw string, mode Mode) Query {
	tokens := tokenizer.Tokenize(raw)
	seen := make(map[string]bool, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		terms = append(terms, tok)
	}
	return Query{Raw: strings.TrimSpace(raw), Mode: mode, Terms: terms}
}

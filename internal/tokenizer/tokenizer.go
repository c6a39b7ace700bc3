// Package tokenizer provides the single normalisation routine shared by
// the parser and the query processor: lowercase, strip ASCII punctuation,
// drop non-ASCII bytes, split on whitespace. It deliberately does no
// stemming or stop-word filtering so that the same deterministic token
// stream is reproducible across parsing and querying.
package tokenizer

// isASCIIPunct reports whether b falls in the POSIX punct class over the
// ASCII range (0x21-0x2F, 0x3A-0x40, 0x5B-0x60, 0x7B-0x7E).
func isASCIIPunct(b byte) bool {
	switch {
	case b >= '!' && b <= '/':
		return true
	case b >= ':' && b <= '@':
		return true
	case b >= '[' && b <= '`':
		return true
	case b >= '{' && b <= '~':
		return true
	default:
		return false
	}
}

func isASCIIWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

func lowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// Tokenize breaks text into lowercased ASCII tokens. The algorithm, in
// order: lowercase every byte, drop ASCII punctuation, drop bytes >= 0x80,
// then split the survivors on runs of ASCII whitespace. Empty tokens are
// discarded. Deterministic, pure, and safe to call from multiple
// goroutines concurrently (no shared state).
func Tokenize(text string) []string {
	cleaned := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		b := text[i]
		if b >= 0x80 {
			continue
		}
		if isASCIIPunct(b) {
			continue
		}
		cleaned = append(cleaned, lowerASCII(b))
	}

	tokens := make([]string, 0, len(cleaned)/6+1)
	start := -1
	for i := 0; i <= len(cleaned); i++ {
		var atEnd bool
		var ws bool
		if i == len(cleaned) {
			atEnd = true
		} else {
			ws = isASCIIWhitespace(cleaned[i])
		}
		if !atEnd && !ws {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			tokens = append(tokens, string(cleaned[start:i]))
			start = -1
		}
	}
	return tokens
}

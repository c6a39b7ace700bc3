package tokenizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single word", "fox", []string{"fox"}},
		{"lowercases", "The Quick Brown Fox", []string{"the", "quick", "brown", "fox"}},
		{"strips punctuation", "fox, jumps! over-the: dog.", []string{"fox", "jumps", "overthe", "dog"}},
		{"drops non-ascii", "caf\xc3\xa9 bar", []string{"caf", "bar"}},
		{"collapses whitespace runs", "a   b\t\tc\n\nd", []string{"a", "b", "c", "d"}},
		{"leading and trailing whitespace", "  hello world  ", []string{"hello", "world"}},
		{"only punctuation yields no tokens", "!!! ...", nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Tokenize(c.in)
			if len(got) == 0 && len(c.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", c.in, got, c.want)
			}
		})
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	inputs := []string{
		"The Quick, Brown-Fox! jumps over the LAZY dog.",
		"",
		"already lower case words",
		"MiXeD-case_with.punct;;;",
	}
	for _, in := range inputs {
		first := Tokenize(in)
		second := Tokenize(strings.Join(first, " "))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Tokenize not idempotent for %q: first=%#v second=%#v", in, first, second)
		}
	}
}

package explain

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// wordLexer splits a query into word, whitespace and punctuation tokens.
// Every input byte matches one of the rules, so lexing cannot stall.
var wordLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Word", Pattern: `[\p{L}\p{N}_]+`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `[^\p{L}\p{N}_\s]`},
})

var wordToken = wordLexer.Symbols()["Word"]

// words returns the word tokens of q in order. Identifiers are split on
// dots, so "pg_catalog.pg_tables" yields two words.
func words(q NormalizedQuery) []string {
	lex, err := wordLexer.LexString("", string(q))
	if err != nil {
		return nil
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(tokens)/2)
	for _, tok := range tokens {
		if tok.Type == wordToken {
			out = append(out, tok.Value)
		}
	}
	return out
}

// hasWordPrefix reports whether any word starts with one of the prefixes,
// compared case-insensitively.
func hasWordPrefix(ws []string, prefixes ...string) bool {
	for _, w := range ws {
		for _, p := range prefixes {
			if len(w) >= len(p) && strings.EqualFold(w[:len(p)], p) {
				return true
			}
		}
	}
	return false
}

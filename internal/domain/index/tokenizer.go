package index

import "strings"

// Tokenize splits input on the single space character.
// Rules:
//  1. Split on ' ' only (tabs, newlines and punctuation stay inside tokens)
//  2. Case is preserved: "Hello" and "hello" are distinct tokens
//  3. Runs of spaces produce empty tokens, which callers skip
//
// Tokenize is total: any string, including "" and non-ASCII input, yields a
// result without error.
func Tokenize(input string) []string {
	return strings.Split(input, " ")
}

// indexTokens returns the non-empty tokens of input.
// The empty token is never indexed and never scored.
func indexTokens(input string) []string {
	raw := Tokenize(input)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_SingleSpace(t *testing.T) {
	assert.Equal(t, []string{"friendly", "greeting"}, Tokenize("friendly greeting"))
}

func TestTokenize_CasePreserved(t *testing.T) {
	assert.Equal(t, []string{"Hello", "hello"}, Tokenize("Hello hello"))
}

func TestTokenize_RepeatedSpacesYieldEmptyTokens(t *testing.T) {
	assert.Equal(t, []string{"a", "", "b"}, Tokenize("a  b"))
}

func TestTokenize_NoPunctuationStripping(t *testing.T) {
	assert.Equal(t, []string{"cow,", "(ASCII)", "tab\tsep"}, Tokenize("cow, (ASCII) tab\tsep"))
}

func TestTokenize_Empty(t *testing.T) {
	assert.Equal(t, []string{""}, Tokenize(""))
}

func TestTokenize_Unicode(t *testing.T) {
	assert.NotPanics(t, func() { Tokenize("résumé ☃ \xff") })
	assert.Equal(t, []string{"résumé", "☃"}, Tokenize("résumé ☃"))
}

func TestIndexTokens_SkipsEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, indexTokens("  a  b "))
	assert.Empty(t, indexTokens("   "))
	assert.Empty(t, indexTokens(""))
}

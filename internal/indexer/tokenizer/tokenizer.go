// Package tokenizer is the analyzer shared by indexing and searching. Input
// has already been normalized by the vocabulary, so it only lower-cases,
// splits on non-alphanumeric boundaries and applies a suffix stemmer so that
// inflections like "adds" and "add" meet in the index.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token is a stemmed term and its ordinal position in the analyzed text.
type Token struct {
	Term     string
	Position int
}

// Tokenize analyzes text into stemmed Tokens. Words shorter than two bytes
// are dropped.
func Tokenize(text string) []Token {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words))
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		tokens = append(tokens, Token{Term: Stem(word), Position: len(tokens)})
	}
	return tokens
}

// Terms is Tokenize without positions.
func Terms(text string) []string {
	tokens := Tokenize(text)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Term
	}
	return out
}

type suffixRule struct {
	suffix      string
	replacement string
	minLen      int
}

// Rules are tried in order; the first suffix that matches and leaves a stem
// of at least minLen bytes wins.
var suffixRules = []suffixRule{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

// Stem strips the first matching suffix from a lower-case word.
func Stem(word string) string {
	for _, rule := range suffixRules {
		if !strings.HasSuffix(word, rule.suffix) {
			continue
		}
		stemmed := word[:len(word)-len(rule.suffix)] + rule.replacement
		if len(stemmed) >= rule.minLen {
			return stemmed
		}
	}
	return word
}

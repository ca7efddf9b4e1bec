// Package vocab normalizes identifiers and code text into retrieval tokens.
// It camel-case splits, lower-cases and drops stop-words and language
// keywords. The word sets live in an immutable Vocabulary built once at
// startup and passed to every call.
package vocab

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/config"
)

//go:embed stopwords.txt
var defaultStopwords []byte

//go:embed keywords.txt
var defaultKeywords []byte

// Vocabulary holds the stop-word and keyword sets. It is never mutated after
// construction and is safe for concurrent use.
type Vocabulary struct {
	stopwords map[string]struct{}
	keywords  map[string]struct{}
}

// New builds a Vocabulary from explicit word lists. Words are lower-cased and
// single quotes are removed from stop-words ("don't" becomes "dont").
func New(stopwords, keywords []string) *Vocabulary {
	v := &Vocabulary{
		stopwords: make(map[string]struct{}, len(stopwords)),
		keywords:  make(map[string]struct{}, len(keywords)),
	}
	for _, w := range stopwords {
		w = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(w, "'", "")))
		if w != "" {
			v.stopwords[w] = struct{}{}
		}
	}
	for _, w := range keywords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			v.keywords[w] = struct{}{}
		}
	}
	return v
}

// Default returns the vocabulary built from the embedded English stop-words
// and Java keywords.
func Default() *Vocabulary {
	return New(readLines(defaultStopwords), readLines(defaultKeywords))
}

// Load builds the vocabulary named by cfg, falling back to the embedded lists
// for any file that is not configured.
func Load(cfg config.VocabularyConfig) (*Vocabulary, error) {
	stop := defaultStopwords
	keys := defaultKeywords
	if cfg.StopwordsFile != "" {
		data, err := os.ReadFile(cfg.StopwordsFile)
		if err != nil {
			return nil, fmt.Errorf("reading stopwords file %s: %w", cfg.StopwordsFile, err)
		}
		stop = data
	}
	if cfg.KeywordsFile != "" {
		data, err := os.ReadFile(cfg.KeywordsFile)
		if err != nil {
			return nil, fmt.Errorf("reading keywords file %s: %w", cfg.KeywordsFile, err)
		}
		keys = data
	}
	return New(readLines(stop), readLines(keys)), nil
}

func readLines(data []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

// IsStopword reports whether w is in the stop-word set.
func (v *Vocabulary) IsStopword(w string) bool {
	_, ok := v.stopwords[w]
	return ok
}

// IsKeyword reports whether w is a language keyword.
func (v *Vocabulary) IsKeyword(w string) bool {
	_, ok := v.keywords[w]
	return ok
}

// FilterStopwords drops tokens of length one or less and stop-words.
func (v *Vocabulary) FilterStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if utf8.RuneCountInString(t) <= 1 || v.IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// FilterStopwordsAndKeywords is FilterStopwords that also drops keywords, so
// source syntax stays out of the retrieval vocabulary.
func (v *Vocabulary) FilterStopwordsAndKeywords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if utf8.RuneCountInString(t) <= 1 || v.IsStopword(t) || v.IsKeyword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// NormalizeName turns a declaration name into tokens: split, lower-case,
// stop-words removed. Keywords are kept.
func (v *Vocabulary) NormalizeName(s string) []string {
	return v.FilterStopwords(lower(SplitCamelCase(s)))
}

// NormalizeCode turns code or prose into tokens: non-letters stripped, split,
// lower-cased, stop-words and keywords removed.
func (v *Vocabulary) NormalizeCode(s string) []string {
	return v.FilterStopwordsAndKeywords(lower(SplitCamelCase(StripNonLetters(s))))
}

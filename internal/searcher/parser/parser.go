// Package parser parses free-text retrieval queries into a boolean plan.
//
// Terms are optional (OR) by default. "a AND b" makes both sides required,
// "+a" requires a term and "-a" or "NOT a" prohibits it. Operators are
// recognized only in upper case, so normalized query text never triggers
// them.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

// Reserved characters have query-syntax meaning that the plan does not
// support, so their presence makes a query unparsable.
const reserved = `()[]{}^~*?:\/"!`

type QueryPlan struct {
	Should   []string
	Must     []string
	MustNot  []string
	RawQuery string
}

// Empty reports whether the plan can match nothing.
func (p *QueryPlan) Empty() bool {
	return len(p.Should) == 0 && len(p.Must) == 0
}

// Terms returns the positive terms, required ones first.
func (p *QueryPlan) Terms() []string {
	out := make([]string, 0, len(p.Must)+len(p.Should))
	out = append(out, p.Must...)
	return append(out, p.Should...)
}

type clause int

const (
	should clause = iota
	must
	mustNot
)

// Parse turns query into a QueryPlan. Each word is analyzed with the index
// tokenizer. Reserved characters and operators with a missing operand return
// errors.ErrBadQuery.
func Parse(query string) (*QueryPlan, error) {
	plan := &QueryPlan{RawQuery: query}
	if i := strings.IndexAny(query, reserved); i >= 0 {
		return nil, errors.Newf(errors.ErrBadQuery, errors.ExitUsage,
			"reserved character %q at offset %d", query[i], i)
	}

	words := strings.Fields(query)
	// Clauses are collected first so that AND can promote its left operand.
	type item struct {
		kind  clause
		terms []string
	}
	items := make([]item, 0, len(words))
	pendingAnd := false
	pendingNot := false

	for i, word := range words {
		switch word {
		case "AND", "&&":
			if len(items) == 0 || pendingAnd || pendingNot || i == len(words)-1 {
				return nil, danglingOperator(word)
			}
			if items[len(items)-1].kind == should {
				items[len(items)-1].kind = must
			}
			pendingAnd = true
			continue
		case "OR", "||":
			if len(items) == 0 || pendingAnd || pendingNot || i == len(words)-1 {
				return nil, danglingOperator(word)
			}
			continue
		case "NOT":
			if pendingNot || i == len(words)-1 {
				return nil, danglingOperator(word)
			}
			pendingNot = true
			continue
		}

		kind := should
		switch {
		case strings.HasPrefix(word, "+"):
			kind, word = must, word[1:]
		case strings.HasPrefix(word, "-"):
			kind, word = mustNot, word[1:]
		}
		if word == "" || strings.HasPrefix(word, "+") || strings.HasPrefix(word, "-") {
			return nil, danglingOperator(words[i])
		}
		if pendingNot {
			kind = mustNot
		} else if pendingAnd && kind == should {
			kind = must
		}
		pendingAnd, pendingNot = false, false

		items = append(items, item{kind: kind, terms: tokenizer.Terms(word)})
	}

	for _, it := range items {
		switch it.kind {
		case must:
			plan.Must = append(plan.Must, it.terms...)
		case mustNot:
			plan.MustNot = append(plan.MustNot, it.terms...)
		case should:
			plan.Should = append(plan.Should, it.terms...)
		}
	}
	return plan, nil
}

func danglingOperator(op string) error {
	return errors.Newf(errors.ErrBadQuery, errors.ExitUsage, "operator %q is missing an operand", op)
}

// Package executor evaluates a parsed query plan against one read snapshot
// and ranks the matching documents.
package executor

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/searcher/ranker"
)

// Snapshot is the read view a plan executes against.
type Snapshot interface {
	Search(term string) index.PostingList
	DocCount() int
	AvgDocLength() float64
	DocLength(docID string) int
	Seq(docID string) uint64
}

type SearchResult struct {
	Query     string             `json:"query"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
	TermStats map[string]int     `json:"term_stats"`
}

type Executor struct {
	logger *slog.Logger
}

func New() *Executor {
	return &Executor{
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute runs plan against snap and returns at most limit ranked documents.
// With required terms present, candidates must contain all of them; otherwise
// any optional term qualifies. Prohibited terms always exclude.
func (e *Executor) Execute(snap Snapshot, plan *parser.QueryPlan, limit int) *SearchResult {
	result := &SearchResult{
		Query:     plan.RawQuery,
		Results:   []ranker.ScoredDoc{},
		TermStats: make(map[string]int),
	}
	if plan.Empty() || limit <= 0 {
		return result
	}

	weights := make(map[string]int)
	postingsPerTerm := make(map[string]index.PostingList)
	for _, term := range plan.Terms() {
		weights[term]++
		if _, done := postingsPerTerm[term]; done {
			continue
		}
		postings := snap.Search(term)
		postingsPerTerm[term] = postings
		result.TermStats[term] = len(postings)
	}

	var candidates map[string]struct{}
	if len(plan.Must) > 0 {
		required := make(map[string]index.PostingList, len(plan.Must))
		for _, term := range plan.Must {
			required[term] = postingsPerTerm[term]
		}
		candidates = intersectPostings(required)
	} else {
		candidates = unionPostings(postingsPerTerm)
	}
	for _, term := range plan.MustNot {
		for _, id := range snap.Search(term).DocIDs() {
			delete(candidates, id)
		}
	}

	filtered := make(map[string]index.PostingList)
	for term, postings := range postingsPerTerm {
		kept := make(index.PostingList, 0, len(postings))
		for _, p := range postings {
			if _, ok := candidates[p.DocID]; ok {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			filtered[term] = kept
		}
	}

	params := ranker.RankParams{
		TotalDocs:    int64(snap.DocCount()),
		AvgDocLength: snap.AvgDocLength(),
		TermWeights:  weights,
	}
	getDocInfo := func(docID string) ranker.DocInfo {
		return ranker.DocInfo{
			DocLength: snap.DocLength(docID),
			Seq:       snap.Seq(docID),
		}
	}
	result.Results = ranker.Rank(filtered, params, getDocInfo, limit)
	result.TotalHits = len(candidates)

	e.logger.Debug("query executed",
		"terms", len(weights),
		"candidates", len(candidates),
		"results", len(result.Results),
	)
	return result
}

// intersectPostings returns the documents present in every list. A term
// without postings empties the result.
func intersectPostings(postingsPerTerm map[string]index.PostingList) map[string]struct{} {
	candidates := make(map[string]struct{})
	if len(postingsPerTerm) == 0 {
		return candidates
	}
	var shortestTerm string
	shortestLen := int(^uint(0) >> 1)
	for term, postings := range postingsPerTerm {
		if len(postings) < shortestLen {
			shortestLen = len(postings)
			shortestTerm = term
		}
	}
	for _, id := range postingsPerTerm[shortestTerm].DocIDs() {
		candidates[id] = struct{}{}
	}
	for term, postings := range postingsPerTerm {
		if term == shortestTerm {
			continue
		}
		docSet := make(map[string]struct{}, len(postings))
		for _, p := range postings {
			docSet[p.DocID] = struct{}{}
		}
		for docID := range candidates {
			if _, exists := docSet[docID]; !exists {
				delete(candidates, docID)
			}
		}
	}
	return candidates
}

func unionPostings(postingsPerTerm map[string]index.PostingList) map[string]struct{} {
	result := make(map[string]struct{})
	for _, postings := range postingsPerTerm {
		for _, id := range postings.DocIDs() {
			result[id] = struct{}{}
		}
	}
	return result
}

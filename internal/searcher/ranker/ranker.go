// Package ranker scores candidate documents with Okapi BM25.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer/index"
)

const (
	k1 = 1.2
	b  = 0.75
)

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
	Seq   uint64  `json:"seq"`
}

// RankParams carries the collection statistics. TermWeights counts how often
// each term occurs in the query; absent terms weigh 1.
type RankParams struct {
	TotalDocs    int64
	AvgDocLength float64
	TermWeights  map[string]int
}

// DocInfo describes a candidate. Seq is its insertion sequence and breaks
// score ties, earlier documents first.
type DocInfo struct {
	DocLength int
	Seq       uint64
}

// Rank scores every document in postingsPerTerm and returns at most limit of
// them in descending score order. A non-positive limit returns all.
func Rank(
	postingsPerTerm map[string]index.PostingList,
	params RankParams,
	getDocInfo func(docID string) DocInfo,
	limit int,
) []ScoredDoc {
	scores := make(map[string]float64)
	infos := make(map[string]DocInfo)
	for term, postings := range postingsPerTerm {
		idf := computeIDF(params.TotalDocs, int64(len(postings)))
		weight := 1.0
		if w, ok := params.TermWeights[term]; ok && w > 0 {
			weight = float64(w)
		}
		for _, posting := range postings {
			info, seen := infos[posting.DocID]
			if !seen {
				info = getDocInfo(posting.DocID)
				infos[posting.DocID] = info
			}
			tfNorm := computeTFNorm(
				float64(posting.Frequency),
				float64(info.DocLength),
				params.AvgDocLength,
			)
			scores[posting.DocID] += weight * idf * tfNorm
		}
	}
	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{
			DocID: docID,
			Score: math.Round(score*10000) / 10000,
			Seq:   infos[docID].Seq,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		if result[i].Seq != result[j].Seq {
			return result[i].Seq < result[j].Seq
		}
		return result[i].DocID < result[j].DocID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// computeIDF keeps the 0.5 smoothing on both sides, so a term present in
// every document still scores above zero.
func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(1 + numerator/denominator)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}

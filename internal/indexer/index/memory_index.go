// Package index holds the in-memory inverted index behind one read snapshot
// of the document store.
package index

import (
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer/tokenizer"
)

// MemoryIndex maps analyzed terms to postings and tracks per-document token
// counts for length normalization.
type MemoryIndex struct {
	mu          sync.RWMutex
	index       map[string]map[string]*Posting
	docLengths  map[string]int
	totalTokens int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index:      make(map[string]map[string]*Posting),
		docLengths: make(map[string]int),
	}
}

// AddDocument analyzes content and indexes it under docID. Adding an id that
// is already present replaces its postings.
func (m *MemoryIndex) AddDocument(docID string, content string) {
	tokens := tokenizer.Tokenize(content)

	termData := make(map[string]*Posting)
	for _, token := range tokens {
		p, exists := termData[token.Term]
		if !exists {
			p = &Posting{
				DocID:     docID,
				Positions: make([]int, 0, 4),
			}
			termData[token.Term] = p
		}
		p.Frequency++
		p.Positions = append(p.Positions, token.Position)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docLengths[docID]; exists {
		m.removeLocked(docID)
	}
	for term, posting := range termData {
		if _, exists := m.index[term]; !exists {
			m.index[term] = make(map[string]*Posting)
		}
		m.index[term][docID] = posting
	}
	m.docLengths[docID] = len(tokens)
	m.totalTokens += int64(len(tokens))
}

// removeLocked drops every posting of docID. The caller holds m.mu.
func (m *MemoryIndex) removeLocked(docID string) {
	length, exists := m.docLengths[docID]
	if !exists {
		return
	}
	for term, docs := range m.index {
		if _, ok := docs[docID]; !ok {
			continue
		}
		delete(docs, docID)
		if len(docs) == 0 {
			delete(m.index, term)
		}
	}
	delete(m.docLengths, docID)
	m.totalTokens -= int64(length)
}

// Search returns the postings for an analyzed term, sorted by document id.
func (m *MemoryIndex) Search(term string) PostingList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, exists := m.index[term]
	if !exists {
		return nil
	}
	result := make(PostingList, 0, len(docs))
	for _, posting := range docs {
		result = append(result, *posting)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocID < result[j].DocID
	})
	return result
}

func (m *MemoryIndex) DocLength(docID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docLengths[docID]
}

func (m *MemoryIndex) AvgDocLength() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.docLengths) == 0 {
		return 0
	}
	return float64(m.totalTokens) / float64(len(m.docLengths))
}

func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docLengths)
}

func (m *MemoryIndex) Terms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

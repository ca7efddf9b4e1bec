package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/searcher/parser"
)

type fakeSnapshot struct {
	*index.MemoryIndex
	seq map[string]uint64
}

func (f fakeSnapshot) Seq(docID string) uint64 { return f.seq[docID] }

func newSnapshot() fakeSnapshot {
	mi := index.NewMemoryIndex()
	mi.AddDocument("add", "calc add adds two numbers")
	mi.AddDocument("subtract", "calc subtract")
	mi.AddDocument("parse", "parser tokens")
	return fakeSnapshot{
		MemoryIndex: mi,
		seq:         map[string]uint64{"add": 1, "subtract": 2, "parse": 3},
	}
}

func run(t *testing.T, q string, limit int) []string {
	t.Helper()
	plan, err := parser.Parse(q)
	require.NoError(t, err)
	res := New().Execute(newSnapshot(), plan, limit)
	ids := make([]string, 0, len(res.Results))
	for _, r := range res.Results {
		ids = append(ids, r.DocID)
	}
	return ids
}

func TestExecute(t *testing.T) {
	tests := []struct {
		query string
		limit int
		want  []string
	}{
		{"calc add", 10, []string{"add", "subtract"}},
		{"calc add", 1, []string{"add"}},
		{"calc AND subtract", 10, []string{"subtract"}},
		{"+calc -add", 10, []string{"subtract"}},
		{"calc NOT subtract", 10, []string{"add"}},
		{"+missing calc", 10, []string{}},
		{"tokens", 10, []string{"parse"}},
		{"nothing", 10, []string{}},
		{"", 10, []string{}},
		{"calc", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, tt.query, tt.limit))
		})
	}
}

func TestExecuteStats(t *testing.T) {
	plan, err := parser.Parse("calc calc add")
	require.NoError(t, err)
	res := New().Execute(newSnapshot(), plan, 10)
	assert.Equal(t, 2, res.TotalHits)
	assert.Equal(t, map[string]int{"calc": 2, "add": 1}, res.TermStats)
	assert.Equal(t, "calc calc add", res.Query)
}

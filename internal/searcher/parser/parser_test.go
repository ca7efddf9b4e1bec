package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		should  []string
		must    []string
		mustNot []string
	}{
		{"default or", "calc adds numbers", []string{"calc", "add", "number"}, nil, nil},
		{"and", "calc AND add", nil, []string{"calc", "add"}, nil},
		{"explicit or", "calc OR add", []string{"calc", "add"}, nil, nil},
		{"not", "calc NOT subtract", []string{"calc"}, nil, []string{"subtract"}},
		{"prefix ops", "+calc -subtract add", []string{"add"}, []string{"calc"}, []string{"subtract"}},
		{"and not", "calc AND NOT add", nil, []string{"calc"}, []string{"add"}},
		{"lower case operators are terms", "calc and add", []string{"calc", "and", "add"}, nil, nil},
		{"compound word", "sum_values", []string{"sum", "valu"}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Parse(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.should, plan.Should)
			assert.Equal(t, tt.must, plan.Must)
			assert.Equal(t, tt.mustNot, plan.MustNot)
			assert.Equal(t, tt.query, plan.RawQuery)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, q := range []string{"", "   ", "a b"} {
		plan, err := Parse(q)
		require.NoError(t, err)
		assert.True(t, plan.Empty(), "query %q", q)
	}
}

func TestParseBadQuery(t *testing.T) {
	for _, q := range []string{
		"calc(",
		"foo:bar",
		"wild*",
		`path\to`,
		"AND calc",
		"calc AND",
		"calc OR",
		"calc NOT",
		"calc AND OR add",
		"NOT NOT calc",
		"-",
		"+-calc",
	} {
		_, err := Parse(q)
		assert.ErrorIs(t, err, errors.ErrBadQuery, "query %q", q)
	}
}

func TestTerms(t *testing.T) {
	plan, err := Parse("+calc add")
	require.NoError(t, err)
	assert.Equal(t, []string{"calc", "add"}, plan.Terms())
}

func BenchmarkParse(b *testing.B) {
	queries := map[string]string{
		"simple":  "calc add",
		"boolean": "calc AND add NOT subtract",
		"long":    "calc add sum values result expected actual assert equals number integer overflow",
	}
	for name, q := range queries {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = Parse(q)
			}
		})
	}
}

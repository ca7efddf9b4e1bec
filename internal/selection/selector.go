// Package selection picks the regression tests relevant to a change. It keeps
// the document index current, turns each diff hunk into a query and unions
// the top hits of every query.
package selection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/change"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/maintainer"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/query"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/tracing"
)

// Index is the document index the selector reads and the maintainer writes.
type Index interface {
	maintainer.Writer
	Search(q string, n int) ([]indexer.Hit, error)
	Existed() bool
}

// Maintainer updates an index for a set of changed files.
type Maintainer interface {
	Run(ctx context.Context, changed map[string]struct{}, existed bool) (maintainer.Report, error)
}

// QueryBuilder turns diffs into queries.
type QueryBuilder interface {
	Build(ctx context.Context, diffs []change.Diff) ([]query.Query, error)
}

// QueryResult is the retrieval outcome of one query. Err is set when the
// query could not be parsed.
type QueryResult struct {
	Query query.Query   `json:"query"`
	Hits  []indexer.Hit `json:"hits"`
	Err   string        `json:"error,omitempty"`
}

// Result is the outcome of one selection.
type Result struct {
	Tests   Set               `json:"-"`
	Queries []QueryResult     `json:"queries"`
	Report  maintainer.Report `json:"maintenance"`
	RunID   string            `json:"runId"`
}

type Selector struct {
	index     Index
	maint     Maintainer
	builder   QueryBuilder
	extension string
	metrics   *metrics.Metrics

	mu         sync.Mutex
	maintained bool
}

// NewSelector wires a selector. m may be nil.
func NewSelector(index Index, maint Maintainer, builder QueryBuilder, extension string, m *metrics.Metrics) *Selector {
	return &Selector{
		index:     index,
		maint:     maint,
		builder:   builder,
		extension: extension,
		metrics:   m,
	}
}

// Select returns the union of the top n hits of every query built from diffs.
// The index is brought up to date first, even when diffs is empty. Queries
// that fail to parse or find nothing are logged and skipped. Index failures
// abort the selection.
func (s *Selector) Select(ctx context.Context, diffs []change.Diff, n int) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := tracing.NewRunID()
	if span := tracing.SpanFromContext(ctx); span != nil && span.RunID != "" {
		runID = span.RunID
	}
	ctx = logger.WithRunID(ctx, runID)
	ctx, span := tracing.StartChildSpan(ctx, "select")
	span.RunID = runID
	log := logger.FromContext(ctx).With("component", "selector")

	result := &Result{Tests: Set{}, RunID: runID}
	defer func() {
		span.SetAttr("selected", len(result.Tests))
		span.End()
		span.Log(log)
	}()

	changed := change.ChangedFiles(diffs, s.extension)
	existed := s.maintained || s.index.Existed()
	var err error
	s.phase(ctx, "maintain", func(ctx context.Context) {
		result.Report, err = s.maint.Run(ctx, changed, existed)
	})
	if err != nil {
		return nil, fmt.Errorf("maintaining index: %w", err)
	}
	s.maintained = true

	if len(diffs) == 0 {
		log.Info("no diffs, nothing selected")
		s.recordSelected(0)
		return result, nil
	}

	var queries []query.Query
	s.phase(ctx, "query", func(ctx context.Context) {
		queries, err = s.builder.Build(ctx, diffs)
	})
	if err != nil {
		return nil, fmt.Errorf("building queries: %w", err)
	}

	s.phase(ctx, "retrieve", func(ctx context.Context) {
		for _, q := range queries {
			qr := QueryResult{Query: q}
			hits, serr := s.index.Search(q.Text, n)
			switch {
			case errors.Is(serr, errors.ErrBadQuery):
				log.Warn("bad query skipped", "query", q.String(), "error", serr)
				qr.Err = serr.Error()
				s.countQuery("bad_query")
			case serr != nil:
				err = serr
				return
			case len(hits) == 0:
				log.Info("query found no tests", "query", q.String())
				s.countQuery("zero_result")
			default:
				s.countQuery("hit")
			}
			if s.metrics != nil && serr == nil {
				s.metrics.HitsPerQuery.Observe(float64(len(hits)))
			}
			for _, h := range hits {
				id := h.Doc.TestID()
				if !result.Tests.Contains(id) {
					log.Debug("test selected", "test", id, "query", q.String(), "score", h.Score)
				}
				result.Tests.Add(id)
			}
			qr.Hits = hits
			result.Queries = append(result.Queries, qr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	s.recordSelected(len(result.Tests))
	log.Info("tests selected",
		"diffs", len(diffs),
		"changed_files", len(changed),
		"queries", len(queries),
		"selected", len(result.Tests),
	)
	return result, nil
}

func (s *Selector) phase(ctx context.Context, name string, fn func(context.Context)) {
	ctx, span := tracing.StartChildSpan(ctx, name)
	start := time.Now()
	fn(ctx)
	span.End()
	if s.metrics != nil {
		s.metrics.PhaseDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

func (s *Selector) countQuery(resultType string) {
	if s.metrics != nil {
		s.metrics.QueriesTotal.WithLabelValues(resultType).Inc()
	}
}

func (s *Selector) recordSelected(n int) {
	if s.metrics != nil {
		s.metrics.SelectedTests.Set(float64(n))
	}
}

// Namespace derives the index namespace of a project root: its base name
// plus a short hash of the absolute path, so equally named checkouts do not
// share an index.
func Namespace(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving project root %s: %w", root, err)
	}
	sum := sha256.Sum256([]byte(abs))
	base := filepath.Base(abs)
	if base == string(filepath.Separator) || base == "." {
		base = "root"
	}
	return base + "-" + hex.EncodeToString(sum[:4]), nil
}

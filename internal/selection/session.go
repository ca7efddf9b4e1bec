package selection

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/change"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/maintainer"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/query"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/source"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/workspace"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/metrics"
)

// Session is the component graph for one project root. It owns the opened
// index; Close releases it. Parsed files are cached for the duration of one
// Select.
type Session struct {
	Root       string
	Namespace  string
	Store      *indexer.Store
	Tree       *workspace.Tree
	Catalog    *source.Catalog
	Vocab      *vocab.Vocabulary
	Maintainer *maintainer.Maintainer
	Selector   *Selector
}

// Open wires a Session for root from cfg. A relative index.dataDir is
// resolved against root. m may be nil.
func Open(cfg *config.Config, root string, m *metrics.Metrics) (*Session, error) {
	v, err := vocab.Load(cfg.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}
	policy, err := query.ParseLinePolicy(cfg.Query.Lines)
	if err != nil {
		return nil, err
	}

	ns := cfg.Index.Namespace
	if ns == "" {
		if ns, err = Namespace(root); err != nil {
			return nil, err
		}
	}

	idxCfg := cfg.Index
	var skip []string
	if !idxCfg.InMemory {
		if !filepath.IsAbs(idxCfg.DataDir) {
			idxCfg.DataDir = filepath.Join(root, idxCfg.DataDir)
		}
		if rel, err := filepath.Rel(root, idxCfg.DataDir); err == nil && !strings.HasPrefix(rel, "..") {
			skip = append(skip, rel)
		}
	}

	store, err := indexer.Open(idxCfg, ns)
	if err != nil {
		return nil, err
	}

	tree := workspace.New(root, skip...)
	catalog := source.NewCatalog(tree, source.NewJavaParser(cfg.Source.MaxFileBytes))
	maint := maintainer.New(store, catalog, tree, v, maintainer.Options{
		Markers: source.Markers{
			Test:   cfg.Selection.TestAnnotations,
			Ignore: cfg.Selection.IgnoreAnnotations,
		},
		Extension: cfg.Query.Extension,
		Workers:   cfg.Index.Workers,
		Metrics:   m,
	})
	builder := query.NewBuilder(catalog, v, policy, cfg.Query.Extension)

	return &Session{
		Root:       root,
		Namespace:  ns,
		Store:      store,
		Tree:       tree,
		Catalog:    catalog,
		Vocab:      v,
		Maintainer: maint,
		Selector:   NewSelector(store, maint, builder, cfg.Query.Extension, m),
	}, nil
}

// Select runs one selection against the current state of the tree.
func (s *Session) Select(ctx context.Context, diffs []change.Diff, n int) (*Result, error) {
	s.Catalog.Reset()
	res, err := s.Selector.Select(ctx, diffs, n)
	loaded, failed := s.Catalog.Stats()
	slog.Default().Debug("source files loaded",
		"component", "session",
		"namespace", s.Namespace,
		"files", loaded,
		"failed", failed,
	)
	return res, err
}

func (s *Session) Close() error {
	return s.Store.Close()
}

// SelectTests opens the index of root, selects the tests relevant to diffs
// with n hits per query and closes the index again.
func SelectTests(ctx context.Context, cfg *config.Config, root string, diffs []change.Diff, n int) (Set, error) {
	sess, err := Open(cfg, root, nil)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	res, err := sess.Select(ctx, diffs, n)
	if err != nil {
		return nil, err
	}
	return res.Tests, nil
}

// Package maintainer keeps the document index in step with the project tree.
// The first run bootstraps every test method; later runs touch only the test
// methods declared in changed files.
package maintainer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/change"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/source"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/metrics"
)

// Writer is the mutating side of the document index.
type Writer interface {
	Insert(doc indexer.TestDocument) error
	RemoveByKey(className, methodName, parameters string) (*indexer.TestDocument, bool, error)
	DocumentsIn(relPath string) ([]indexer.TestDocument, error)
	Refresh() error
}

// FileSource yields parsed declarations for a project-relative path.
type FileSource interface {
	Get(ctx context.Context, relPath string) (*source.File, error)
}

// Lister enumerates project files with an extension, in lexical order.
type Lister interface {
	Files(ext string) ([]string, error)
}

type Options struct {
	Markers   source.Markers
	Extension string
	Workers   int
	Metrics   *metrics.Metrics
}

// Report summarizes one maintenance run.
type Report struct {
	Bootstrap   bool          `json:"bootstrap"`
	Files       int           `json:"files"`
	FilesFailed int           `json:"filesFailed"`
	Inserted    int           `json:"inserted"`
	Removed     int           `json:"removed"`
	Ignored     int           `json:"ignored"`
	Duration    time.Duration `json:"duration"`
}

type Maintainer struct {
	store  Writer
	files  FileSource
	tree   Lister
	vocab  *vocab.Vocabulary
	opts   Options
	logger *slog.Logger
}

func New(store Writer, files FileSource, tree Lister, v *vocab.Vocabulary, opts Options) *Maintainer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Extension == "" {
		opts.Extension = ".java"
	}
	return &Maintainer{
		store:  store,
		files:  files,
		tree:   tree,
		vocab:  v,
		opts:   opts,
		logger: slog.Default().With("component", "index-maintainer"),
	}
}

// Run brings the index up to date and refreshes it exactly once. Without a
// prior index every source file is visited; otherwise only the files in
// changed are, and documents of test methods that left a changed file are
// removed. Files that fail to parse are skipped. Files that no longer
// exist are skipped too, leaving their documents in place.
func (m *Maintainer) Run(ctx context.Context, changed map[string]struct{}, existed bool) (Report, error) {
	start := time.Now()
	report := Report{Bootstrap: !existed}

	var paths []string
	if existed {
		for _, p := range change.SortedPaths(changed) {
			if strings.HasSuffix(p, m.opts.Extension) {
				paths = append(paths, p)
			}
		}
	} else {
		all, err := m.tree.Files(m.opts.Extension)
		if err != nil {
			return report, fmt.Errorf("listing source files: %w", err)
		}
		paths = all
	}
	report.Files = len(paths)

	parsed, err := m.parseAll(ctx, paths)
	if err != nil {
		return report, err
	}

	for i, f := range parsed {
		if f == nil {
			report.FilesFailed++
			continue
		}
		if err := m.apply(paths[i], f, existed, &report); err != nil {
			return report, fmt.Errorf("updating index for %s: %w", paths[i], err)
		}
	}

	if err := m.refresh(); err != nil {
		return report, fmt.Errorf("refreshing index: %w", err)
	}
	report.Duration = time.Since(start)

	m.logger.Info("index maintained",
		"bootstrap", report.Bootstrap,
		"files", report.Files,
		"files_failed", report.FilesFailed,
		"inserted", report.Inserted,
		"removed", report.Removed,
		"ignored", report.Ignored,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// parseAll parses paths concurrently. The result is aligned with paths; a
// nil entry marks a file that could not be read or parsed.
func (m *Maintainer) parseAll(ctx context.Context, paths []string) ([]*source.File, error) {
	out := make([]*source.File, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := m.files.Get(gctx, p)
			if err != nil {
				if errors.Is(err, errors.ErrFileNotFound) {
					m.logger.Warn("changed file not in tree, documents left as is", "file", p)
				}
				m.countFile("failed")
				return nil
			}
			m.countFile("ok")
			out[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parsing source files: %w", err)
	}
	return out, nil
}

// apply re-indexes the test methods of one file. On an existing index every
// document previously taken from relPath that the current version no longer
// yields is removed: the method was deleted, renamed, re-signatured or lost
// its test marker.
func (m *Maintainer) apply(relPath string, f *source.File, existed bool, report *Report) error {
	stale := make(map[string]indexer.TestDocument)
	if existed {
		prev, err := m.store.DocumentsIn(relPath)
		if err != nil {
			return err
		}
		for _, d := range prev {
			stale[d.Key()] = d
		}
	}

	for _, method := range f.Methods {
		if !m.opts.Markers.IsTest(method) {
			continue
		}
		if existed {
			if err := m.remove(method.Class, method.Name, method.Signature(), report); err != nil {
				return err
			}
			delete(stale, indexer.Key(method.Class, method.Name, method.Signature()))
		}
		if m.opts.Markers.IsIgnored(method) {
			report.Ignored++
			continue
		}
		if err := m.store.Insert(BuildDocument(m.vocab, relPath, method)); err != nil {
			return err
		}
		report.Inserted++
		if m.opts.Metrics != nil {
			m.opts.Metrics.DocsInsertedTotal.Inc()
		}
	}

	keys := make([]string, 0, len(stale))
	for k := range stale {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d := stale[k]
		m.logger.Debug("test method gone, removing document", "file", relPath, "key", k)
		if err := m.remove(d.ClassName, d.MethodName, d.Parameters, report); err != nil {
			return err
		}
	}
	return nil
}

func (m *Maintainer) remove(className, methodName, parameters string, report *Report) error {
	_, ok, err := m.store.RemoveByKey(className, methodName, parameters)
	if err != nil {
		return err
	}
	if ok {
		report.Removed++
		if m.opts.Metrics != nil {
			m.opts.Metrics.DocsRemovedTotal.Inc()
		}
	}
	return nil
}

func (m *Maintainer) refresh() error {
	start := time.Now()
	err := m.store.Refresh()
	if m.opts.Metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.opts.Metrics.IndexRefreshTotal.WithLabelValues(status).Inc()
		m.opts.Metrics.IndexRefreshLatency.Observe(time.Since(start).Seconds())
	}
	return err
}

func (m *Maintainer) countFile(status string) {
	if m.opts.Metrics != nil {
		m.opts.Metrics.FilesParsedTotal.WithLabelValues(status).Inc()
	}
}

// Package query turns diff hunks into free-text retrieval queries. A query
// carries the names of the declarations a hunk touches followed by the
// identifier vocabulary of its changed lines.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/change"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/source"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

// LinePolicy selects which hunk lines contribute tokens.
type LinePolicy int

const (
	AddedAndRemoved LinePolicy = iota
	AddedOnly
)

// ParseLinePolicy maps the query.lines config value to a LinePolicy.
func ParseLinePolicy(s string) (LinePolicy, error) {
	switch s {
	case config.LinesAddedAndRemoved, "":
		return AddedAndRemoved, nil
	case config.LinesAdded:
		return AddedOnly, nil
	default:
		return 0, errors.Newf(errors.ErrInvalidInput, errors.ExitUsage, "unknown line policy %q", s)
	}
}

func (p LinePolicy) includes(t change.LineType) bool {
	switch t {
	case change.Added:
		return true
	case change.Removed:
		return p == AddedAndRemoved
	case change.Context:
		return false
	}
	return false
}

// Query is the retrieval query derived from one hunk. CoveredClasses and
// CoveredMethods hold the unnormalized names whose ranges the hunk
// intersects, sorted.
type Query struct {
	File           string   `json:"file"`
	Hunk           int      `json:"hunk"`
	CoveredClasses []string `json:"coveredClasses"`
	CoveredMethods []string `json:"coveredMethods"`
	Text           string   `json:"text"`
}

// FileSource yields parsed declarations for a project-relative path.
type FileSource interface {
	Get(ctx context.Context, relPath string) (*source.File, error)
}

// Builder builds queries for a batch of diffs.
type Builder struct {
	files  FileSource
	vocab  *vocab.Vocabulary
	policy LinePolicy
	ext    string
	logger *slog.Logger
}

func NewBuilder(files FileSource, v *vocab.Vocabulary, policy LinePolicy, ext string) *Builder {
	return &Builder{
		files:  files,
		vocab:  v,
		policy: policy,
		ext:    ext,
		logger: slog.Default().With("component", "query-builder"),
	}
}

// Build returns one Query per hunk of every diff whose target carries the
// tracked extension, in input order. A diff whose target file cannot be found
// contributes nothing. A file that fails to parse still yields line-only
// queries.
func (b *Builder) Build(ctx context.Context, diffs []change.Diff) ([]Query, error) {
	var out []Query
	for _, d := range diffs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if d.TargetFile == "" || !strings.HasSuffix(d.TargetFile, b.ext) {
			continue
		}

		classes, methods := source.DeclarationIndex{}, source.DeclarationIndex{}
		f, err := b.files.Get(ctx, d.TargetFile)
		switch {
		case errors.Is(err, errors.ErrFileNotFound):
			b.logger.Warn("target file missing, diff skipped", "file", d.TargetFile)
			continue
		case err != nil:
			b.logger.Warn("declarations unavailable, using changed lines only",
				"file", d.TargetFile,
				"error", err,
			)
		default:
			classes, methods = f.ClassIndex(), f.MethodIndex()
		}

		for i, h := range d.Hunks {
			out = append(out, b.build(d.TargetFile, i, h, classes, methods))
		}
	}
	return out, nil
}

func (b *Builder) build(file string, idx int, h change.Hunk, classes, methods source.DeclarationIndex) Query {
	q := Query{
		File:           file,
		Hunk:           idx,
		CoveredClasses: classes.Intersecting(h.Target),
		CoveredMethods: methods.Intersecting(h.Target),
	}

	var tokens []string
	for _, name := range q.CoveredClasses {
		tokens = append(tokens, b.vocab.NormalizeName(name)...)
	}
	for _, name := range q.CoveredMethods {
		tokens = append(tokens, b.vocab.NormalizeName(name)...)
	}
	for _, l := range h.Lines {
		if b.policy.includes(l.Type) {
			tokens = append(tokens, b.vocab.NormalizeCode(l.Text)...)
		}
	}
	q.Text = strings.Join(tokens, " ")

	b.logger.Debug("query built",
		"file", file,
		"hunk", idx,
		"classes", len(q.CoveredClasses),
		"methods", len(q.CoveredMethods),
		"tokens", len(tokens),
	)
	return q
}

func (q Query) String() string {
	return fmt.Sprintf("%s#%d %q", q.File, q.Hunk, q.Text)
}

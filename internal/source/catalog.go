package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

// ContentReader returns the bytes of a file addressed relative to the
// project root.
type ContentReader interface {
	Read(relPath string) ([]byte, error)
}

type catalogEntry struct {
	file *File
	err  error
}

// Catalog memoizes parse results for one run so that every file is read and
// parsed at most once, even when the query builder and the index maintainer
// both need it, or several workers ask for it at the same time.
type Catalog struct {
	reader ContentReader
	parser Parser
	group  singleflight.Group
	mu     sync.Mutex
	files  map[string]catalogEntry
	failed int
	logger *slog.Logger
}

func NewCatalog(reader ContentReader, parser Parser) *Catalog {
	return &Catalog{
		reader: reader,
		parser: parser,
		files:  make(map[string]catalogEntry),
		logger: slog.Default().With("component", "source-catalog"),
	}
}

// Get returns the parsed file at relPath. Read and parse errors are cached
// as well; callers treat them as "file ignored".
func (c *Catalog) Get(ctx context.Context, relPath string) (*File, error) {
	c.mu.Lock()
	if e, ok := c.files[relPath]; ok {
		c.mu.Unlock()
		return e.file, e.err
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do(relPath, func() (interface{}, error) {
		c.mu.Lock()
		if e, ok := c.files[relPath]; ok {
			c.mu.Unlock()
			return e, nil
		}
		c.mu.Unlock()

		e := c.load(ctx, relPath)
		c.mu.Lock()
		c.files[relPath] = e
		if e.err != nil {
			c.failed++
		}
		c.mu.Unlock()
		return e, nil
	})
	e := v.(catalogEntry)
	return e.file, e.err
}

func (c *Catalog) load(ctx context.Context, relPath string) catalogEntry {
	content, err := c.reader.Read(relPath)
	if err != nil {
		if !errors.Is(err, errors.ErrFileNotFound) {
			c.logger.Warn("read failed, file ignored", "file", relPath, "error", err)
		}
		return catalogEntry{err: fmt.Errorf("reading %s: %w", relPath, err)}
	}
	f, err := c.parser.Parse(ctx, relPath, content)
	if err != nil {
		c.logger.Warn("parse failed, file ignored", "file", relPath, "error", err)
		return catalogEntry{err: err}
	}
	c.logger.Debug("file parsed",
		"file", relPath,
		"classes", len(f.Classes),
		"methods", len(f.Methods),
	)
	return catalogEntry{file: f}
}

// Reset forgets every cached result so the next Get reads the file again.
func (c *Catalog) Reset() {
	c.mu.Lock()
	c.files = make(map[string]catalogEntry)
	c.failed = 0
	c.mu.Unlock()
}

// Stats returns how many distinct files were loaded and how many of them
// failed.
func (c *Catalog) Stats() (loaded, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files), c.failed
}

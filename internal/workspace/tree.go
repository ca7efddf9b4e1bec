// Package workspace enumerates and reads the files of a project checkout.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

// File describes one entry under the root. RelPath uses forward slashes.
type File struct {
	RelPath string
	Name    string
	IsDir   bool
}

// Tree is a project checkout rooted at Root. Directories whose name starts
// with a dot and the relative paths in Skip are not descended into.
type Tree struct {
	Root string
	Skip []string
}

func New(root string, skip ...string) *Tree {
	cleaned := make([]string, 0, len(skip))
	for _, s := range skip {
		if s == "" {
			continue
		}
		cleaned = append(cleaned, filepath.ToSlash(filepath.Clean(s)))
	}
	return &Tree{Root: root, Skip: cleaned}
}

// Walk calls fn for every regular file under the root in lexical order.
// Returning an error from fn stops the walk.
func (t *Tree) Walk(fn func(File) error) error {
	err := filepath.WalkDir(t.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(t.Root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && t.skipDir(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return fn(File{RelPath: rel, Name: d.Name()})
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", t.Root, err)
	}
	return nil
}

// Files returns the relative paths of every file ending in ext, sorted.
func (t *Tree) Files(ext string) ([]string, error) {
	var paths []string
	err := t.Walk(func(f File) error {
		if strings.HasSuffix(f.Name, ext) {
			paths = append(paths, f.RelPath)
		}
		return nil
	})
	return paths, err
}

func (t *Tree) skipDir(rel, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, s := range t.Skip {
		if rel == s {
			return true
		}
	}
	return false
}

// Read returns the content of relPath. A path escaping the root or missing
// from it reports ErrFileNotFound.
func (t *Tree) Read(relPath string) ([]byte, error) {
	abs, err := t.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrFileNotFound, relPath)
		}
		return nil, fmt.Errorf("reading %s: %w", relPath, err)
	}
	return data, nil
}

func (t *Tree) resolve(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside the project root", errors.ErrFileNotFound, relPath)
	}
	return filepath.Join(t.Root, clean), nil
}

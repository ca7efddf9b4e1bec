package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestTreeFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/b/B.java", "class B {}")
	writeFile(t, root, "src/a/A.java", "class A {}")
	writeFile(t, root, "README.md", "readme")
	writeFile(t, root, ".git/objects/X.java", "ignored")
	writeFile(t, root, ".rts/ns/Y.java", "ignored")
	writeFile(t, root, "build/Gen.java", "skipped")

	tree := New(root, "build")
	files, err := tree.Files(".java")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a/A.java", "src/b/B.java"}, files)
}

func TestTreeRead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/A.java", "class A {}")
	tree := New(root)

	data, err := tree.Read("src/A.java")
	require.NoError(t, err)
	assert.Equal(t, "class A {}", string(data))

	_, err = tree.Read("src/Missing.java")
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
	_, err = tree.Read("../outside.java")
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
}

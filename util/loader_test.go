package util

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestResolveInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.jpg")
	touch(t, path)

	input, err := ResolveInput(path)
	require.NoError(t, err)
	assert.Equal(t, InputFile, input.Kind)
	assert.Equal(t, []string{path}, input.Files)
}

func TestResolveInputDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpeg", "c.png", "d.bmp", "e.JPG", "f.txt", "g.webp"} {
		touch(t, filepath.Join(dir, name))
	}
	// Directories are skipped even when named like an image.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	input, err := ResolveInput(dir)
	require.NoError(t, err)
	assert.Equal(t, InputDirectory, input.Kind)

	names := make([]string, 0, len(input.Files))
	for _, f := range input.Files {
		names = append(names, filepath.Base(f))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.jpg", "b.jpeg", "c.png", "d.bmp"}, names)
}

func TestResolveInputEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "model.onnx", "IMG.PNG"} {
		touch(t, filepath.Join(dir, name))
	}

	_, err := ResolveInput(dir)
	assert.ErrorIs(t, err, ErrEmptyDirectory)

	_, err = ResolveInput(t.TempDir())
	assert.ErrorIs(t, err, ErrEmptyDirectory)
}

func TestResolveInputNotFound(t *testing.T) {
	_, err := ResolveInput(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, Exists(filepath.Join(t.TempDir(), "missing")), ErrNotFound)
}

func TestEnsureOutputDir(t *testing.T) {
	root := t.TempDir()

	nested := filepath.Join(root, "out", "nested")
	require.NoError(t, EnsureOutputDir(nested))
	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Existing directory is fine.
	require.NoError(t, EnsureOutputDir(nested))

	occupied := filepath.Join(root, "file")
	touch(t, occupied)
	assert.ErrorIs(t, EnsureOutputDir(occupied), ErrNotDirectory)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "a.jpg"), OutputPath("out", filepath.Join("in", "deep", "a.jpg")))
}

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), mode))
}

func TestFindFilesByExtension_Dir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.hcl"), 0o644)
	touch(t, filepath.Join(dir, "sub", "b.hcl"), 0o644)
	touch(t, filepath.Join(dir, "c.txt"), 0o644)

	files, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindFilesByExtension_SingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "only.hcl")
	touch(t, path, 0o644)

	files, err := FindFilesByExtension(path, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)

	_, err = FindFilesByExtension(path, ".toml")
	require.Error(t, err)
}

func TestFindExecutable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "blender-4.4.0", "blender"), 0o755)
	touch(t, filepath.Join(dir, "blender-4.4.0", "4.4", "python", "bin", "python3.11"), 0o755)
	touch(t, filepath.Join(dir, "blender-4.4.0", "readme.txt"), 0o644)

	blender, err := FindExecutable(dir, "blender", "blender.exe")
	require.NoError(t, err)
	assert.Equal(t, "blender", filepath.Base(blender))

	python, err := FindExecutable(dir, "python3.*", "python.exe", "python*")
	require.NoError(t, err)
	assert.Equal(t, "python3.11", filepath.Base(python))
}

func TestFindExecutable_SkipsNonExecutable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "blender"), 0o644)

	_, err := FindExecutable(dir, "blender")
	require.Error(t, err)
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, EnsureDir(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

package extract

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRelease builds a small tar.gz shaped like a Blender release.
func writeRelease(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	entries := []struct {
		name string
		mode int64
	}{
		{"blender-4.4.1-linux-x64/blender", 0o755},
		{"blender-4.4.1-linux-x64/4.4/python/bin/python3.11", 0o755},
		{"blender-4.4.1-linux-x64/license.txt", 0o644},
	}
	for _, e := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: e.name, Mode: e.mode, Size: 1}))
		_, err := tw.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())

	path := filepath.Join(t.TempDir(), "blender-4.4.1-linux-x64.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestOnRunExtract_ResolvesBlender(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "unpacked")
	out, err := OnRunExtract(context.Background(), &Input{
		Path:           writeRelease(t),
		Dest:           dest,
		ResolveBlender: true,
	})
	require.NoError(t, err)

	assert.Equal(t, dest, out.Dir)
	assert.Equal(t, 3, out.Files)
	assert.Equal(t, "blender", filepath.Base(out.BlenderExecutable))
	assert.Equal(t, "python3.11", filepath.Base(out.BlenderPython))
}

func TestOnRunExtract_Zip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "addon.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("addon/__init__.py")
	require.NoError(t, err)
	_, err = w.Write([]byte("pass"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(dir, "out")
	out, err := OnRunExtract(context.Background(), &Input{Path: zipPath, Dest: dest})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Files)
	assert.Empty(t, out.BlenderExecutable)
}

func TestOnRunExtract_MissingBlender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "readme.txt", Mode: 0o644, Size: 1}))
	_, err := tw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())

	dir := t.TempDir()
	path := filepath.Join(dir, "not-blender.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err = OnRunExtract(context.Background(), &Input{
		Path:           path,
		Dest:           filepath.Join(dir, "out"),
		ResolveBlender: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locating blender executable")
}

package unzip

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnRunUnzip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "addon-1.0.0.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"__init__.py", "blender_manifest.toml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(dir, "artifact")
	out, err := OnRunUnzip(context.Background(), &Input{Path: zipPath, Dest: dest})
	require.NoError(t, err)

	assert.Equal(t, dest, out.Dir)
	assert.Equal(t, 2, out.Files)
	_, err = os.Stat(filepath.Join(dest, "blender_manifest.toml"))
	assert.NoError(t, err)
}

func TestOnRunUnzip_MissingArchive(t *testing.T) {
	t.Parallel()

	_, err := OnRunUnzip(context.Background(), &Input{
		Path: filepath.Join(t.TempDir(), "nope.zip"),
		Dest: t.TempDir(),
	})
	require.Error(t, err)
}

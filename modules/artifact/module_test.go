package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnRunArtifact_SingleFile(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "addon-1.0.0.zip")
	require.NoError(t, os.WriteFile(src, []byte("zip bytes"), 0o644))

	dest := t.TempDir()
	out, err := OnRunArtifact(context.Background(), &Input{
		Source: src,
		Bundle: "addon-main-0123456",
		Dest:   dest,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Count)
	assert.Equal(t, []string{"addon-1.0.0.zip"}, out.Keys)
	assert.Equal(t, int64(9), out.Bytes)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, "addon-main-0123456/"+out.RunID, out.Bundle)

	published := filepath.Join(dest, "addon-main-0123456", out.RunID, "addon-1.0.0.zip")
	got, err := os.ReadFile(published)
	require.NoError(t, err)
	assert.Equal(t, "zip bytes", string(got))
}

func TestOnRunArtifact_RepeatRunsCoexist(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "addon-1.0.0.zip")
	require.NoError(t, os.WriteFile(src, []byte("first"), 0o644))

	dest := t.TempDir()
	input := &Input{Source: src, Bundle: "addon-main-0123456", Dest: dest}

	first, err := OnRunArtifact(context.Background(), input)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src, []byte("second"), 0o644))
	second, err := OnRunArtifact(context.Background(), input)
	require.NoError(t, err)

	require.NotEqual(t, first.RunID, second.RunID)

	got, err := os.ReadFile(filepath.Join(dest, "addon-main-0123456", first.RunID, "addon-1.0.0.zip"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	got, err = os.ReadFile(filepath.Join(dest, "addon-main-0123456", second.RunID, "addon-1.0.0.zip"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestOnRunArtifact_Directory(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "sub", "b.txt"), []byte("b"), 0o644))

	out, err := OnRunArtifact(context.Background(), &Input{
		Source: srcDir,
		Bundle: "bundle",
		Dest:   t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []string{"a.txt", "sub/b.txt"}, out.Keys)
}

func TestOnRunArtifact_EmptyDirectory(t *testing.T) {
	t.Parallel()

	_, err := OnRunArtifact(context.Background(), &Input{
		Source: t.TempDir(),
		Bundle: "bundle",
		Dest:   t.TempDir(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to publish")
}

func TestOnRunArtifact_MissingSource(t *testing.T) {
	t.Parallel()

	_, err := OnRunArtifact(context.Background(), &Input{
		Source: filepath.Join(t.TempDir(), "ghost"),
		Bundle: "bundle",
		Dest:   t.TempDir(),
	})
	require.Error(t, err)
}

func TestCollectFiles_SortsKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.txt"), []byte("z"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))

	files, err := collectFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].key)
	assert.Equal(t, "z.txt", files[1].key)
}

package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutGet(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(t.TempDir())
	ctx := context.Background()
	body := "addon zip bytes"

	entry, err := store.Put(ctx, "io_scene_psk_psa-main-0123456", "addon-1.0.0.zip", strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "addon-1.0.0.zip", entry.Key)
	assert.Equal(t, int64(len(body)), entry.Size)

	sum := sha256.Sum256([]byte(body))
	assert.Equal(t, hex.EncodeToString(sum[:]), entry.Checksum)

	rc, err := store.Get(ctx, "io_scene_psk_psa-main-0123456", "addon-1.0.0.zip")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestLocalStore_ChecksumSidecar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewLocalStore(dir)

	entry, err := store.Put(context.Background(), "bundle", "file.bin", strings.NewReader("x"))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "bundle", "file.bin.sha256"))
	require.NoError(t, err)
	assert.Equal(t, entry.Checksum, strings.TrimSpace(string(raw)))
}

func TestLocalStore_List(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	_, err := store.Put(ctx, "bundle", "b/two.txt", strings.NewReader("two"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "bundle", "a/one.txt", strings.NewReader("one"))
	require.NoError(t, err)

	entries, err := store.List(ctx, "bundle")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a/one.txt", entries[0].Key)
	assert.Equal(t, "b/two.txt", entries[1].Key)
	assert.NotEmpty(t, entries[0].Checksum)
}

func TestLocalStore_ListMissingBundle(t *testing.T) {
	t.Parallel()

	store := NewLocalStore(t.TempDir())
	entries, err := store.List(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_Delete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	_, err := store.Put(ctx, "bundle", "gone.txt", strings.NewReader("bye"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "bundle", "gone.txt"))

	_, err = os.Stat(filepath.Join(dir, "bundle", "gone.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "bundle", "gone.txt.sha256"))
	assert.True(t, os.IsNotExist(err))

	require.Error(t, store.Delete(ctx, "bundle", "gone.txt"))
}

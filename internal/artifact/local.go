package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalStore implements Store on the local filesystem. Files are stored
// under {baseDir}/{bundle}/{key} with a sidecar .sha256 file per entry, so
// a published bundle survives process restarts and can be inspected with
// ordinary shell tools.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a LocalStore rooted at baseDir.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

func (s *LocalStore) entryPath(bundle, key string) string {
	return filepath.Join(s.baseDir, bundle, filepath.FromSlash(key))
}

// Put stores a file, computing its SHA-256 as it writes. The file is written
// to a temp name and renamed into place so partial writes are never visible.
func (s *LocalStore) Put(_ context.Context, bundle, key string, reader io.Reader) (Entry, error) {
	path := s.entryPath(bundle, key)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Entry{}, fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return Entry{}, fmt.Errorf("create artifact temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), reader)
	if err != nil {
		tmp.Close()
		return Entry{}, fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Entry{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Entry{}, fmt.Errorf("finalize artifact: %w", err)
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	if err := os.WriteFile(path+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return Entry{}, fmt.Errorf("write artifact checksum: %w", err)
	}

	return Entry{
		Key:       key,
		Size:      size,
		Checksum:  checksum,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Get opens a stored file.
func (s *LocalStore) Get(_ context.Context, bundle, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.entryPath(bundle, key))
	if err != nil {
		return nil, fmt.Errorf("open artifact %q in bundle %q: %w", key, bundle, err)
	}
	return f, nil
}

// List walks the bundle directory and reconstructs entry metadata from the
// files and their checksum sidecars.
func (s *LocalStore) List(_ context.Context, bundle string) ([]Entry, error) {
	root := filepath.Join(s.baseDir, bundle)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) == ".sha256" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		checksum := ""
		if raw, err := os.ReadFile(path + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(raw))
		}

		entries = append(entries, Entry{
			Key:       filepath.ToSlash(rel),
			Size:      info.Size(),
			Checksum:  checksum,
			CreatedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Delete removes an entry and its checksum sidecar.
func (s *LocalStore) Delete(_ context.Context, bundle, key string) error {
	path := s.entryPath(bundle, key)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete artifact %q in bundle %q: %w", key, bundle, err)
	}
	_ = os.Remove(path + ".sha256")
	return nil
}

// Package artifact provides the 'artifact' runner. It publishes a file or a
// directory of files into an artifact store under {bundle}/{run_id}, where
// the bundle usually combines the addon id with the git ref and commit SHA
// and the run id is a fresh uuid, so every pipeline run lands in its own
// namespace.
package artifact

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/specialistvlad/addonforge/internal/artifact"
	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/registry"
)

const envS3Bucket = "ADDONFORGE_ARTIFACT_S3_BUCKET"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	Source string `hcl:"source"`
	Bundle string `hcl:"bundle"`

	// Dest is the base directory of the local store. Ignored when an S3
	// bucket is configured.
	Dest string `hcl:"dest,optional"`

	// Bucket selects the S3 store. Falls back to the
	// ADDONFORGE_ARTIFACT_S3_BUCKET environment variable.
	Bucket string `hcl:"bucket,optional"`
	Prefix string `hcl:"prefix,optional"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	RunID  string   `cty:"run_id"`
	Bundle string   `cty:"bundle"`
	Keys   []string `cty:"keys"`
	Count  int      `cty:"count"`
	Bytes  int64    `cty:"bytes"`
}

// OnRunArtifact is the handler for the 'artifact' runner.
func OnRunArtifact(ctx context.Context, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	store, err := openStore(ctx, input)
	if err != nil {
		return nil, err
	}

	files, err := collectFiles(input.Source)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("artifact: nothing to publish under %s", input.Source)
	}

	// Each run publishes under its own uuid so repeat runs of the same
	// bundle never overwrite each other.
	runID := uuid.NewString()
	scope := path.Join(input.Bundle, runID)
	out := &Output{RunID: runID, Bundle: scope}
	for _, file := range files {
		f, err := os.Open(file.path)
		if err != nil {
			return nil, fmt.Errorf("artifact: opening %s: %w", file.path, err)
		}
		entry, err := store.Put(ctx, scope, file.key, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("artifact: publishing %s: %w", file.key, err)
		}
		logger.Info("📦 Published artifact.", "bundle", scope, "key", entry.Key, "bytes", entry.Size)
		out.Keys = append(out.Keys, entry.Key)
		out.Bytes += entry.Size
	}
	out.Count = len(out.Keys)
	return out, nil
}

func openStore(ctx context.Context, input *Input) (artifact.Store, error) {
	bucket := input.Bucket
	if bucket == "" {
		bucket = os.Getenv(envS3Bucket)
	}
	if bucket != "" {
		return artifact.NewS3StoreFromEnv(ctx, bucket, input.Prefix)
	}
	dest := input.Dest
	if dest == "" {
		dest = "artifacts"
	}
	return artifact.NewLocalStore(dest), nil
}

type sourceFile struct {
	path string
	key  string
}

// collectFiles resolves the source into (path, key) pairs. A single file
// keeps its base name as the key; a directory is walked and keys are the
// slash-separated paths relative to it.
func collectFiles(source string) ([]sourceFile, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	if !info.IsDir() {
		return []sourceFile{{path: source, key: filepath.Base(source)}}, nil
	}

	var files []sourceFile
	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		files = append(files, sourceFile{path: path, key: strings.ReplaceAll(rel, string(filepath.Separator), "/")})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("artifact: walking %s: %w", source, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].key < files[j].key })
	return files, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("artifact", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunArtifact,
	})
}

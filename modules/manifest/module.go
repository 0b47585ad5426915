// Package manifest provides the 'manifest' runner, which reads a Blender
// extension manifest (blender_manifest.toml) and exposes its metadata to the
// rest of the pipeline. The version it reports is what the build step's
// output zip name is checked against.
package manifest

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	Path string `hcl:"path"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	ID                string `cty:"id"`
	Name              string `cty:"name"`
	Version           string `cty:"version"`
	SchemaVersion     string `cty:"schema_version"`
	BlenderVersionMin string `cty:"blender_version_min"`
}

// blenderManifest mirrors the fields of blender_manifest.toml we care about.
type blenderManifest struct {
	SchemaVersion     string `toml:"schema_version"`
	ID                string `toml:"id"`
	Name              string `toml:"name"`
	Version           string `toml:"version"`
	BlenderVersionMin string `toml:"blender_version_min"`
}

// OnRunManifest is the handler for the 'manifest' runner.
func OnRunManifest(ctx context.Context, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	raw, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, fmt.Errorf("reading extension manifest: %w", err)
	}

	var m blenderManifest
	if _, err := toml.Decode(string(raw), &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", input.Path, err)
	}

	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s is missing required field 'id'", input.Path)
	}
	if m.Version == "" {
		return nil, fmt.Errorf("manifest %s is missing required field 'version'", input.Path)
	}

	logger.Info("Read extension manifest.", "id", m.ID, "version", m.Version)

	return &Output{
		ID:                m.ID,
		Name:              m.Name,
		Version:           m.Version,
		SchemaVersion:     m.SchemaVersion,
		BlenderVersionMin: m.BlenderVersionMin,
	}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("manifest", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunManifest,
	})
}

// Package unzip provides the 'unzip' runner, used to stage a built
// extension zip into the artifact directory before publication.
package unzip

import (
	"context"

	"github.com/specialistvlad/addonforge/internal/archive"
	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	Path string `hcl:"path"`
	Dest string `hcl:"dest"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	Dir   string `cty:"dir"`
	Files int    `cty:"files"`
}

// OnRunUnzip is the handler for the 'unzip' runner.
func OnRunUnzip(ctx context.Context, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Unpacking zip.", "path", input.Path, "dest", input.Dest)

	files, err := archive.Unzip(input.Path, input.Dest)
	if err != nil {
		return nil, err
	}

	return &Output{Dir: input.Dest, Files: files}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("unzip", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunUnzip,
	})
}

// Package extract provides the 'extract' runner. It unpacks release and
// build archives, and can resolve the blender executable plus its bundled
// Python interpreter inside an extracted Blender release, the paths the CI
// workflow exported as BLENDER_EXECUTABLE and BLENDER_PYTHON.
package extract

import (
	"context"
	"fmt"

	"github.com/specialistvlad/addonforge/internal/archive"
	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/fsutil"
	"github.com/specialistvlad/addonforge/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	Path string `hcl:"path"`
	Dest string `hcl:"dest"`
	// ResolveBlender makes the runner locate the blender binary and its
	// bundled python under the extracted tree.
	ResolveBlender bool `hcl:"resolve_blender,optional"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	Dir               string `cty:"dir"`
	Files             int    `cty:"files"`
	BlenderExecutable string `cty:"blender_executable"`
	BlenderPython     string `cty:"blender_python"`
}

// OnRunExtract is the handler for the 'extract' runner.
func OnRunExtract(ctx context.Context, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Extracting archive.", "path", input.Path, "dest", input.Dest)

	files, err := archive.Extract(input.Path, input.Dest)
	if err != nil {
		return nil, err
	}
	logger.Info("Extraction complete.", "files", files)

	out := &Output{Dir: input.Dest, Files: files}

	if input.ResolveBlender {
		blender, err := fsutil.FindExecutable(input.Dest, "blender", "blender.exe")
		if err != nil {
			return nil, fmt.Errorf("extract: locating blender executable: %w", err)
		}
		// The bundled interpreter carries a version suffix, e.g. python3.11.
		python, err := fsutil.FindExecutable(input.Dest, "python3.*", "python.exe", "python*")
		if err != nil {
			return nil, fmt.Errorf("extract: locating bundled python: %w", err)
		}
		out.BlenderExecutable = blender
		out.BlenderPython = python
		logger.Info("Resolved Blender paths.", "blender", blender, "python", python)
	}

	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("extract", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunExtract,
	})
}

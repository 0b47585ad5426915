// Package psx_check provides the 'psx_check' runner: a structural
// smoke-check over the .psk/.psa fixture files an addon's test suite relies
// on, catching truncated or misframed fixtures before the much slower
// Blender-based tests run.
package psx_check

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/fsutil"
	"github.com/specialistvlad/addonforge/internal/psx"
	"github.com/specialistvlad/addonforge/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block. Either an
// explicit file list or a directory to scan.
type Input struct {
	Paths []string `hcl:"paths,optional"`
	Dir   string   `hcl:"dir,optional"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	Checked int `cty:"checked"`
}

// OnRunPsxCheck is the handler for the 'psx_check' runner.
func OnRunPsxCheck(ctx context.Context, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	paths := append([]string(nil), input.Paths...)
	if input.Dir != "" {
		for _, ext := range []string{".psk", ".psa"} {
			found, err := fsutil.FindFilesByExtension(input.Dir, ext)
			if err != nil {
				return nil, fmt.Errorf("psx_check: scanning %s: %w", input.Dir, err)
			}
			paths = append(paths, found...)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("psx_check: no files given; set paths or dir")
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := psx.ValidateFile(path); err != nil {
			return nil, err
		}
		logger.Debug("Fixture OK.", "path", path)
	}

	logger.Info("All fixtures passed structural checks.", "count", len(paths))
	return &Output{Checked: len(paths)}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("psx_check", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunPsxCheck,
	})
}

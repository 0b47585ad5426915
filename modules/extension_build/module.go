// Package extension_build provides the 'extension_build' runner: it invokes
// Blender's own extension builder and enforces the naming contract between
// the manifest and the produced archive — for manifest id A and version V,
// the build must yield exactly A-V.zip.
package extension_build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/fsutil"
	"github.com/specialistvlad/addonforge/internal/registry"
	"github.com/specialistvlad/addonforge/modules/command"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block. ID and Version
// are usually wired from the manifest step's outputs.
type Input struct {
	Blender   string `hcl:"blender"`
	SourceDir string `hcl:"source_dir"`
	OutputDir string `hcl:"output_dir,optional"`
	ID        string `hcl:"id"`
	Version   string `hcl:"version"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	ZipPath string `cty:"zip_path"`
	ZipName string `cty:"zip_name"`
	Size    int64  `cty:"size"`
}

// OnRunExtensionBuild is the handler for the 'extension_build' runner.
func OnRunExtensionBuild(ctx context.Context, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	outputDir := input.OutputDir
	if outputDir == "" {
		outputDir = input.SourceDir
	}
	if err := fsutil.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("extension_build: create output dir: %w", err)
	}

	argv := []string{
		input.Blender,
		"--command", "extension", "build",
		"--source-dir", input.SourceDir,
		"--output-dir", outputDir,
	}
	out, err := command.Run(ctx, argv, "", nil)
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		return nil, fmt.Errorf("extension_build: blender exited with code %d: %s", out.ExitCode, out.Stderr)
	}

	// The naming contract: the build output must be <id>-<version>.zip.
	zipName := fmt.Sprintf("%s-%s.zip", input.ID, input.Version)
	zipPath := filepath.Join(outputDir, zipName)
	info, err := os.Stat(zipPath)
	if err != nil {
		return nil, fmt.Errorf("extension_build: build did not produce %s: %w", zipName, err)
	}

	logger.Info("Extension built.", "zip", zipPath, "size", info.Size())
	return &Output{ZipPath: zipPath, ZipName: zipName, Size: info.Size()}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("extension_build", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunExtensionBuild,
	})
}

// Package pytest provides the 'pytest' runner. It drives the addon's test
// suite through Blender's bundled Python, exporting BLENDER_EXECUTABLE and
// BLENDER_PYTHON the way pytest-blender expects.
package pytest

import (
	"context"
	"fmt"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/registry"
	"github.com/specialistvlad/addonforge/modules/command"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	// Python is the interpreter to run pytest with, usually the bundled
	// one resolved by the extract step.
	Python string `hcl:"python"`
	// BlenderExecutable is exported so pytest-blender can launch Blender.
	BlenderExecutable string   `hcl:"blender_executable"`
	TestsDir          string   `hcl:"tests_dir"`
	AddonsDirs        []string `hcl:"addons_dirs,optional"`
	Dir               string   `hcl:"dir,optional"`
	ExtraArgs         []string `hcl:"extra_args,optional"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	ExitCode int    `cty:"exit_code"`
	Stdout   string `cty:"stdout"`
}

// OnRunPytest is the handler for the 'pytest' runner.
func OnRunPytest(ctx context.Context, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	argv := []string{input.Python, "-m", "pytest", "-svv", input.TestsDir}
	if len(input.AddonsDirs) > 0 {
		argv = append(argv, "--blender-addons-dirs")
		argv = append(argv, input.AddonsDirs...)
	}
	argv = append(argv, input.ExtraArgs...)

	env := map[string]string{
		"BLENDER_EXECUTABLE": input.BlenderExecutable,
		"BLENDER_PYTHON":     input.Python,
	}

	out, err := command.Run(ctx, argv, input.Dir, env)
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		logger.Error("Test run failed.", "exit_code", out.ExitCode)
		return nil, fmt.Errorf("pytest: exited with code %d:\n%s", out.ExitCode, out.Stdout)
	}

	logger.Info("Test run passed.")
	return &Output{ExitCode: out.ExitCode, Stdout: out.Stdout}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("pytest", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunPytest,
	})
}

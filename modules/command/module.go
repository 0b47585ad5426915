// Package command provides the 'command' runner for arbitrary process
// execution: dependency installs, git operations, anything the built-in
// runners don't cover.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	Argv []string          `hcl:"argv"`
	Dir  string            `hcl:"dir,optional"`
	Env  map[string]string `hcl:"env,optional"`
	// IgnoreExitCode turns a non-zero exit into a normal output instead of
	// a step failure.
	IgnoreExitCode bool `hcl:"ignore_exit_code,optional"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	ExitCode int    `cty:"exit_code"`
	Stdout   string `cty:"stdout"`
	Stderr   string `cty:"stderr"`
}

// Run executes argv as a child process, inheriting the pipeline's
// environment with the step's env entries appended. It is shared with the
// runners that wrap specific tools (extension_build, pytest).
func Run(ctx context.Context, argv []string, dir string, env map[string]string) (*Output, error) {
	if len(argv) == 0 {
		return nil, errors.New("command: argv must not be empty")
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Running command.", "argv", argv, "dir", dir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := &Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		// exit 0
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("command: starting %q: %w", argv[0], err)
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("command: %q: %w", argv[0], ctx.Err())
	}

	logger.Debug("Command finished.", "exit_code", out.ExitCode)
	return out, nil
}

// OnRunCommand is the handler for the 'command' runner.
func OnRunCommand(ctx context.Context, input *Input) (*Output, error) {
	out, err := Run(ctx, input.Argv, input.Dir, input.Env)
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 && !input.IgnoreExitCode {
		return nil, fmt.Errorf("command: %q exited with code %d: %s", input.Argv[0], out.ExitCode, tail(out.Stderr))
	}
	return out, nil
}

// tail returns the last few hundred bytes of s, enough stderr context for an
// error message without dumping the whole log.
func tail(s string) string {
	const max = 400
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("command", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunCommand,
	})
}

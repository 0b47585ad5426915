// Package env_vars provides the 'env_vars' runner: a snapshot of the process
// environment plus normalized CI metadata (ref, commit SHA), so artifact
// names can be keyed by branch and commit without platform-specific
// expressions in the pipeline.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/specialistvlad/addonforge/internal/ciinfo"
	"github.com/specialistvlad/addonforge/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input is empty because this runner takes no arguments.
type Input struct{}

// Output defines the data structure returned by the runner.
type Output struct {
	All      map[string]string `cty:"all"`
	CI       bool              `cty:"ci"`
	Ref      string            `cty:"ref"`
	SHA      string            `cty:"sha"`
	ShortSHA string            `cty:"short_sha"`
}

// OnRunEnvVars is the handler for the 'env_vars' runner.
func OnRunEnvVars(ctx context.Context, input *Input) (*Output, error) {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}

	info := ciinfo.Detect()

	return &Output{
		All:      envMap,
		CI:       info.CI,
		Ref:      info.Ref,
		SHA:      info.SHA,
		ShortSHA: info.ShortSHA(),
	}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("env_vars", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunEnvVars,
	})
}

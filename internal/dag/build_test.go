package dag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/model"
)

// quietCtx returns a context whose logger discards everything.
func quietCtx(t *testing.T) context.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// buildFromString parses the HCL and builds a graph from it.
func buildFromString(t *testing.T, hclBody string, vars map[string]cty.Value) (*Graph, error) {
	t.Helper()
	ctx := quietCtx(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(hclBody), 0o644))

	pipeline, err := model.Load(ctx, path)
	require.NoError(t, err)

	if vars == nil {
		vars = map[string]cty.Value{}
	}
	return Build(ctx, pipeline, vars)
}

func TestBuild_SingleStep(t *testing.T) {
	t.Parallel()

	graph, err := buildFromString(t, `step "print" "a" {}`, nil)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 1)

	node, ok := graph.Nodes["step.print.a[0]"]
	require.True(t, ok)
	assert.Equal(t, 0, node.Index)
	assert.Equal(t, 1, node.Count)
	assert.Empty(t, node.Deps)
}

func TestBuild_CountExpansion(t *testing.T) {
	t.Parallel()

	graph, err := buildFromString(t, `
		step "print" "a" {
			count = 3
		}
	`, nil)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 3)
	for i := 0; i < 3; i++ {
		_, ok := graph.Nodes[fmt.Sprintf("step.print.a[%d]", i)]
		assert.True(t, ok)
	}
}

func TestBuild_DisabledStepExcluded(t *testing.T) {
	t.Parallel()

	graph, err := buildFromString(t, `
		step "print" "on" {}
		step "print" "off" {
			enabled = false
		}
	`, nil)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 1)
	_, ok := graph.Nodes["step.print.on[0]"]
	assert.True(t, ok)
}

func TestBuild_EnabledFromVariable(t *testing.T) {
	t.Parallel()

	vars := map[string]cty.Value{"run_it": cty.False}
	graph, err := buildFromString(t, `
		step "print" "a" {
			enabled = var.run_it
		}
	`, vars)
	require.NoError(t, err)
	assert.Empty(t, graph.Nodes)
}

func TestBuild_ExplicitDependency(t *testing.T) {
	t.Parallel()

	graph, err := buildFromString(t, `
		step "print" "first" {}
		step "print" "second" {
			depends_on = ["print.first"]
		}
	`, nil)
	require.NoError(t, err)

	second := graph.Nodes["step.print.second[0]"]
	require.NotNil(t, second)
	assert.Contains(t, second.Deps, "step.print.first[0]")

	first := graph.Nodes["step.print.first[0]"]
	assert.Contains(t, first.Dependents, "step.print.second[0]")
}

func TestBuild_ExplicitDependencyOnAllInstances(t *testing.T) {
	t.Parallel()

	graph, err := buildFromString(t, `
		step "print" "many" {
			count = 2
		}
		step "print" "after" {
			depends_on = ["print.many"]
		}
	`, nil)
	require.NoError(t, err)

	after := graph.Nodes["step.print.after[0]"]
	require.NotNil(t, after)
	assert.Len(t, after.Deps, 2)
}

func TestBuild_ExplicitDependencyOnInstance(t *testing.T) {
	t.Parallel()

	graph, err := buildFromString(t, `
		step "print" "many" {
			count = 2
		}
		step "print" "after" {
			depends_on = ["print.many[1]"]
		}
	`, nil)
	require.NoError(t, err)

	after := graph.Nodes["step.print.after[0]"]
	require.Len(t, after.Deps, 1)
	assert.Contains(t, after.Deps, "step.print.many[1]")
}

func TestBuild_DependencyOnDisabledStepIsVacuous(t *testing.T) {
	t.Parallel()

	graph, err := buildFromString(t, `
		step "print" "off" {
			enabled = false
		}
		step "print" "after" {
			depends_on = ["print.off"]
		}
	`, nil)
	require.NoError(t, err)

	after := graph.Nodes["step.print.after[0]"]
	require.NotNil(t, after)
	assert.Empty(t, after.Deps)
}

func TestBuild_ImplicitDependency(t *testing.T) {
	t.Parallel()

	graph, err := buildFromString(t, `
		step "env_vars" "ci" {}
		step "print" "msg" {
			arguments {
				message = step.env_vars.ci.output.ref
			}
		}
	`, nil)
	require.NoError(t, err)

	msg := graph.Nodes["step.print.msg[0]"]
	require.NotNil(t, msg)
	assert.Contains(t, msg.Deps, "step.env_vars.ci[0]")
}

func TestBuild_UnknownDependency(t *testing.T) {
	t.Parallel()

	_, err := buildFromString(t, `
		step "print" "a" {
			depends_on = ["print.ghost"]
		}
	`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-existent step")
}

func TestBuild_UnknownImplicitReference(t *testing.T) {
	t.Parallel()

	_, err := buildFromString(t, `
		step "print" "a" {
			arguments {
				message = step.print.ghost.output.x
			}
		}
	`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")
}

func TestBuild_CycleDetected(t *testing.T) {
	t.Parallel()

	_, err := buildFromString(t, `
		step "print" "a" {
			depends_on = ["print.b"]
		}
		step "print" "b" {
			depends_on = ["print.a"]
		}
	`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected")
}

func TestBuild_NegativeCount(t *testing.T) {
	t.Parallel()

	_, err := buildFromString(t, `
		step "print" "a" {
			count = -1
		}
	`, nil)
	require.Error(t, err)
}

func TestBuild_TimeoutParsed(t *testing.T) {
	t.Parallel()

	graph, err := buildFromString(t, `
		step "print" "a" {
			timeout = "90s"
		}
	`, nil)
	require.NoError(t, err)

	node := graph.Nodes["step.print.a[0]"]
	assert.Equal(t, "1m30s", node.Timeout.String())
}

func TestBuild_InvalidTimeout(t *testing.T) {
	t.Parallel()

	_, err := buildFromString(t, `
		step "print" "a" {
			timeout = "soon"
		}
	`, nil)
	require.Error(t, err)
}

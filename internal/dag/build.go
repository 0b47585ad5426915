package dag

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/model"
)

// Build constructs a complete, validated dependency graph from a pipeline
// model. Variables are needed here because enabled, count and timeout may
// reference them and must resolve statically before the graph exists.
func Build(ctx context.Context, pipeline *model.Pipeline, vars map[string]cty.Value) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")
	graph := &Graph{Nodes: make(map[string]*Node)}

	staticCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(vars)},
	}

	// First pass: create all nodes, expanding count.
	if err := createNodes(ctx, pipeline, graph, staticCtx); err != nil {
		return nil, err
	}
	logger.Debug("Build: node creation complete.", "node_count", len(graph.Nodes))

	// Second pass: link explicit and implicit dependencies.
	if err := linkNodes(ctx, pipeline, graph); err != nil {
		return nil, err
	}
	logger.Debug("Build: node linking complete.")

	// Third pass: seed dependency counters.
	for _, node := range graph.Nodes {
		node.setInitialCounters()
	}

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: graph construction successful.")

	return graph, nil
}

// createNodes expands each enabled step into its instances.
func createNodes(ctx context.Context, pipeline *model.Pipeline, graph *Graph, staticCtx *hcl.EvalContext) error {
	logger := ctxlog.FromContext(ctx)

	for _, step := range pipeline.Steps {
		enabled, err := evalEnabled(step, staticCtx)
		if err != nil {
			return err
		}
		if !enabled {
			logger.Debug("Step disabled, excluding from graph.", "step", step.Address())
			continue
		}

		count, err := evalCount(step, staticCtx)
		if err != nil {
			return err
		}

		timeout, err := evalTimeout(step, staticCtx)
		if err != nil {
			return err
		}

		for i := 0; i < count; i++ {
			id := fmt.Sprintf("step.%s[%d]", step.Address(), i)
			graph.Nodes[id] = &Node{
				ID:         id,
				Step:       step,
				Index:      i,
				Count:      count,
				Timeout:    timeout,
				Deps:       make(map[string]*Node),
				Dependents: make(map[string]*Node),
			}
		}
	}
	return nil
}

// evalEnabled resolves a step's enabled expression; absent means true.
func evalEnabled(step *model.Step, staticCtx *hcl.EvalContext) (bool, error) {
	if step.Enabled == nil {
		return true, nil
	}
	val, diags := step.Enabled.Value(staticCtx)
	if diags.HasErrors() {
		return false, fmt.Errorf("step %q: cannot evaluate enabled: %w", step.Address(), diags)
	}
	if !val.IsKnown() || val.Type() != cty.Bool {
		return false, fmt.Errorf("step %q: enabled must be a static boolean", step.Address())
	}
	return val.True(), nil
}

// evalCount resolves a step's count expression; absent means one instance.
func evalCount(step *model.Step, staticCtx *hcl.EvalContext) (int, error) {
	if step.Count == nil {
		return 1, nil
	}
	val, diags := step.Count.Value(staticCtx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("step %q: cannot evaluate count: %w", step.Address(), diags)
	}
	if !val.IsKnown() || val.Type() != cty.Number {
		return 0, fmt.Errorf("step %q: count must be a static number", step.Address())
	}
	count, _ := val.AsBigFloat().Int64()
	if count < 0 {
		return 0, fmt.Errorf("step %q: count must not be negative, got %d", step.Address(), count)
	}
	return int(count), nil
}

// evalTimeout resolves a step's timeout expression; absent means unlimited.
func evalTimeout(step *model.Step, staticCtx *hcl.EvalContext) (time.Duration, error) {
	if step.Timeout == nil {
		return 0, nil
	}
	val, diags := step.Timeout.Value(staticCtx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("step %q: cannot evaluate timeout: %w", step.Address(), diags)
	}
	if !val.IsKnown() || val.Type() != cty.String {
		return 0, fmt.Errorf("step %q: timeout must be a static duration string", step.Address())
	}
	d, err := time.ParseDuration(val.AsString())
	if err != nil {
		return 0, fmt.Errorf("step %q: invalid timeout: %w", step.Address(), err)
	}
	return d, nil
}

// detectCycles checks for circular dependencies in the graph using DFS.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(node *Node) error
	visit = func(node *Node) error {
		visiting[node.ID] = true
		for _, dep := range node.Deps {
			if visiting[dep.ID] {
				return fmt.Errorf("cycle detected involving '%s'", dep.ID)
			}
			if !visited[dep.ID] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, node.ID)
		visited[node.ID] = true
		return nil
	}

	for _, node := range g.Nodes {
		if !visited[node.ID] {
			if err := visit(node); err != nil {
				return err
			}
		}
	}
	return nil
}

package dag

import (
	"context"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
)

// instanceOutput pairs an instance's output with its index so instances can
// be ordered before exposure to the HCL engine.
type instanceOutput struct {
	index int
	value cty.Value
}

// buildEvalContext creates the HCL evaluation context for a node. Outputs of
// every completed step in the graph are visible, giving expressions a
// consistent global view: `step.<runner>.<name>.output.<field>` for single
// instances, and a tuple of such objects for counted steps.
func (e *Executor) buildEvalContext(ctx context.Context, node *Node) *hcl.EvalContext {
	logger := ctxlog.FromContext(ctx)
	vars := make(map[string]cty.Value)

	// map[runner_type] -> map[instance_name] -> []instanceOutput
	byRunner := make(map[string]map[string][]instanceOutput)

	for _, graphNode := range e.graph.Nodes {
		// Reading Output is safe here: a dependent only runs after the
		// producer's Done state was published, and non-dependency nodes are
		// filtered by the same state check.
		if graphNode.State() != Done || graphNode.Output == cty.NilVal {
			continue
		}

		runnerType := graphNode.Step.RunnerType
		instanceName := graphNode.Step.Name

		if _, ok := byRunner[runnerType]; !ok {
			byRunner[runnerType] = make(map[string][]instanceOutput)
		}
		wrapped := cty.ObjectVal(map[string]cty.Value{"output": graphNode.Output})
		byRunner[runnerType][instanceName] = append(
			byRunner[runnerType][instanceName],
			instanceOutput{index: graphNode.Index, value: wrapped},
		)
	}

	stepVals := make(map[string]cty.Value)
	for runnerType, instances := range byRunner {
		instanceVals := make(map[string]cty.Value)
		for name, outputs := range instances {
			sort.Slice(outputs, func(i, j int) bool { return outputs[i].index < outputs[j].index })

			if len(outputs) == 1 && !isCounted(e.graph, runnerType, name) {
				instanceVals[name] = outputs[0].value
				continue
			}
			vals := make([]cty.Value, len(outputs))
			for i, out := range outputs {
				vals[i] = out.value
			}
			instanceVals[name] = cty.TupleVal(vals)
		}
		stepVals[runnerType] = cty.ObjectVal(instanceVals)
	}
	vars["step"] = cty.ObjectVal(stepVals)
	vars["var"] = cty.ObjectVal(e.vars)

	// Expose count.index for the instance that is currently executing.
	vars["count"] = cty.ObjectVal(map[string]cty.Value{
		"index": cty.NumberIntVal(int64(node.Index)),
	})

	logger.Debug("Built evaluation context.", "node", node.ID, "visible_runners", len(stepVals))
	return &hcl.EvalContext{Variables: vars}
}

// isCounted reports whether the given step was expanded with count, in which
// case references must use index syntax even for a single instance.
func isCounted(graph *Graph, runnerType, name string) bool {
	for _, n := range graph.Nodes {
		if n.Step.RunnerType == runnerType && n.Step.Name == name {
			return n.Step.Count != nil
		}
	}
	return false
}

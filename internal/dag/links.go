package dag

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/model"
)

// linkNodes establishes all dependency edges: explicit depends_on entries
// first, then implicit references found in argument expressions.
func linkNodes(ctx context.Context, pipeline *model.Pipeline, graph *Graph) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting node linking pass.")

	for _, node := range graph.Nodes {
		for _, depAddr := range node.Step.DependsOn {
			if err := linkExplicitDep(ctx, node, depAddr, pipeline, graph); err != nil {
				return err
			}
		}
		for _, expr := range node.Step.ArgExprs {
			if err := linkImplicitDeps(ctx, node, expr, pipeline, graph); err != nil {
				return err
			}
		}
	}

	logger.Debug("Finished node linking pass.")
	return nil
}

// addEdge records that node depends on dep.
func addEdge(ctx context.Context, node, dep *Node) {
	if _, exists := node.Deps[dep.ID]; exists {
		return
	}
	ctxlog.FromContext(ctx).Debug("Linking dependency.", "from", node.ID, "to", dep.ID)
	node.Deps[dep.ID] = dep
	dep.Dependents[node.ID] = node
}

// depAddrRegex parses addresses like "manifest.addon" or "manifest.addon[2]".
var depAddrRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+)(?:\[(\d+)\])?$`)

// linkExplicitDep resolves one depends_on entry. A bare address depends on
// every instance of the target step; an indexed address depends on exactly
// that instance.
func linkExplicitDep(ctx context.Context, node *Node, depAddr string, pipeline *model.Pipeline, graph *Graph) error {
	matches := depAddrRegex.FindStringSubmatch(depAddr)
	if matches == nil {
		return fmt.Errorf("step %q: invalid depends_on address %q", node.Step.Address(), depAddr)
	}
	addr := matches[1]

	if pipeline.StepByAddress(addr) == nil {
		return fmt.Errorf("step %q depends on non-existent step %q", node.Step.Address(), depAddr)
	}

	if matches[2] != "" {
		index, err := strconv.Atoi(matches[2])
		if err != nil {
			return fmt.Errorf("step %q: invalid index in %q", node.Step.Address(), depAddr)
		}
		depID := fmt.Sprintf("step.%s[%d]", addr, index)
		dep, ok := graph.Nodes[depID]
		if !ok {
			return fmt.Errorf("step %q depends on non-existent instance %q", node.Step.Address(), depAddr)
		}
		addEdge(ctx, node, dep)
		return nil
	}

	deps := instancesOf(graph, addr)
	if len(deps) == 0 {
		// The step exists but produced no instances (disabled or count 0);
		// the dependency is vacuously satisfied.
		return nil
	}
	for _, dep := range deps {
		addEdge(ctx, node, dep)
	}
	return nil
}

// stepRef holds information extracted from an HCL traversal.
type stepRef struct {
	Addr  string // "runner_type.instance_name"
	Index int    // the index accessed, or -1 if none
}

// parseStepTraversal analyzes an HCL traversal for a step reference of the
// form `step.<runner_type>.<instance_name>`, optionally indexed.
func parseStepTraversal(traversal hcl.Traversal) (*stepRef, bool) {
	if len(traversal) < 3 || traversal.RootName() != "step" {
		return nil, false
	}

	runnerAttr, runnerOk := traversal[1].(hcl.TraverseAttr)
	nameAttr, nameOk := traversal[2].(hcl.TraverseAttr)
	if !runnerOk || !nameOk {
		return nil, false
	}

	ref := &stepRef{
		Addr:  fmt.Sprintf("%s.%s", runnerAttr.Name, nameAttr.Name),
		Index: -1,
	}

	if len(traversal) > 3 {
		if indexer, ok := traversal[3].(hcl.TraverseIndex); ok && indexer.Key.Type() == cty.Number {
			num := indexer.Key.AsBigFloat()
			if num.IsInt() {
				val, _ := num.Int64()
				ref.Index = int(val)
			}
		}
	}

	return ref, true
}

// linkImplicitDeps walks an expression's variable traversals and creates
// edges for every step output it references.
func linkImplicitDeps(ctx context.Context, node *Node, expr hcl.Expression, pipeline *model.Pipeline, graph *Graph) error {
	for _, traversal := range expr.Variables() {
		ref, ok := parseStepTraversal(traversal)
		if !ok {
			continue
		}

		if pipeline.StepByAddress(ref.Addr) == nil {
			return fmt.Errorf("step %q references unknown step %q", node.Step.Address(), ref.Addr)
		}

		if ref.Index >= 0 {
			depID := fmt.Sprintf("step.%s[%d]", ref.Addr, ref.Index)
			dep, ok := graph.Nodes[depID]
			if !ok {
				return fmt.Errorf("step %q references non-existent instance %q[%d]", node.Step.Address(), ref.Addr, ref.Index)
			}
			addEdge(ctx, node, dep)
			continue
		}

		deps := instancesOf(graph, ref.Addr)
		if len(deps) == 0 {
			return fmt.Errorf("step %q references step %q which has no instances", node.Step.Address(), ref.Addr)
		}
		for _, dep := range deps {
			addEdge(ctx, node, dep)
		}
	}
	return nil
}

// instancesOf returns all graph nodes belonging to the given step address.
func instancesOf(graph *Graph, addr string) []*Node {
	var nodes []*Node
	for _, n := range graph.Nodes {
		if n.Step.Address() == addr {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

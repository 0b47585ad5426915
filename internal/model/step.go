// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Step is the format-agnostic representation of a `step` block: one
// configured invocation of a runner, forming a node in the execution graph.
type Step struct {
	RunnerType string
	Name       string

	// DependsOn holds explicit ordering edges, as "runner.name" or
	// "runner.name[i]" addresses.
	DependsOn []string

	// Enabled, Count and Timeout are kept as expressions so they can
	// reference pipeline variables. They must be statically resolvable at
	// graph-build time.
	Enabled hcl.Expression
	Count   hcl.Expression
	Timeout hcl.Expression

	Retry *Retry

	// Arguments is the body of the step's `arguments` block, decoded into
	// the runner's input struct at execution time. ArgExprs exposes the
	// same attributes as raw expressions for dependency analysis.
	Arguments hcl.Body
	ArgExprs  map[string]hcl.Expression

	DeclRange hcl.Range
}

// Address returns the step's "runner.name" address.
func (s *Step) Address() string {
	return fmt.Sprintf("%s.%s", s.RunnerType, s.Name)
}

// stepBodySchema defines the expected structure of a `step` block's body.
var stepBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "depends_on"},
		{Name: "enabled"},
		{Name: "count"},
		{Name: "timeout"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "arguments"},
		{Type: "retry"},
	},
}

// newStepFromBlock decodes a single `step` block.
func newStepFromBlock(block *hcl.Block) (*Step, error) {
	step := &Step{
		RunnerType: block.Labels[0],
		Name:       block.Labels[1],
		DeclRange:  block.DefRange,
	}

	content, diags := block.Body.Content(stepBodySchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("step %q: %w", step.Address(), diags)
	}

	if attr, ok := content.Attributes["enabled"]; ok {
		step.Enabled = attr.Expr
	}
	if attr, ok := content.Attributes["count"]; ok {
		step.Count = attr.Expr
	}
	if attr, ok := content.Attributes["timeout"]; ok {
		step.Timeout = attr.Expr
	}
	if attr, ok := content.Attributes["depends_on"]; ok {
		deps, err := parseDependsOn(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Address(), err)
		}
		step.DependsOn = deps
	}

	var argumentsSeen, retrySeen bool
	for _, inner := range content.Blocks {
		switch inner.Type {
		case "arguments":
			if argumentsSeen {
				return nil, fmt.Errorf("step %q: duplicate arguments block", step.Address())
			}
			argumentsSeen = true
			step.Arguments = inner.Body

			attrs, diags := inner.Body.JustAttributes()
			if diags.HasErrors() {
				return nil, fmt.Errorf("step %q arguments: %w", step.Address(), diags)
			}
			step.ArgExprs = make(map[string]hcl.Expression, len(attrs))
			for name, attr := range attrs {
				step.ArgExprs[name] = attr.Expr
			}
		case "retry":
			if retrySeen {
				return nil, fmt.Errorf("step %q: duplicate retry block", step.Address())
			}
			retrySeen = true
			retry, err := newRetryFromBlock(inner)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", step.Address(), err)
			}
			step.Retry = retry
		}
	}

	return step, nil
}

// parseDependsOn requires a list literal of static step addresses. The
// attribute defines graph edges, so its value cannot depend on anything that
// is only known at execution time.
func parseDependsOn(expr hcl.Expression) ([]string, error) {
	exprs, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, fmt.Errorf("depends_on must be a list of step addresses: %w", diags)
	}

	deps := make([]string, 0, len(exprs))
	for _, e := range exprs {
		val, diags := e.Value(nil)
		if diags.HasErrors() || !val.IsKnown() || val.Type() != cty.String {
			return nil, fmt.Errorf("depends_on entries must be quoted step addresses like \"manifest.addon\"")
		}
		deps = append(deps, val.AsString())
	}
	return deps, nil
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Variable is a pipeline-level input: a `variable "name" { default = ... }`
// block, referenced in step arguments as `var.<name>` and overridable from
// the command line.
type Variable struct {
	Name      string
	Default   cty.Value
	DeclRange hcl.Range
}

var variableBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "default"},
	},
}

// newVariableFromBlock decodes a single `variable` block. The default value
// must be a literal; variables cannot reference steps or other variables.
func newVariableFromBlock(block *hcl.Block) (*Variable, error) {
	v := &Variable{
		Name:      block.Labels[0],
		Default:   cty.NullVal(cty.DynamicPseudoType),
		DeclRange: block.DefRange,
	}

	content, diags := block.Body.Content(variableBodySchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("variable %q: %w", v.Name, diags)
	}

	if attr, ok := content.Attributes["default"]; ok {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("variable %q: default must be a literal value: %w", v.Name, diags)
		}
		v.Default = val
	}

	return v, nil
}

// VariableValues merges declared defaults with command-line overrides into
// the map used for the `var` object in evaluation contexts. Overrides are
// plain strings; an override without a matching declaration is an error so
// typos fail loudly.
func VariableValues(declared []*Variable, overrides map[string]string) (map[string]cty.Value, error) {
	values := make(map[string]cty.Value, len(declared))
	for _, v := range declared {
		values[v.Name] = v.Default
	}
	for name, raw := range overrides {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("value supplied for undeclared variable %q", name)
		}
		values[name] = cty.StringVal(raw)
	}
	return values, nil
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/fsutil"
)

// Pipeline is the aggregated view of all pipeline files under a path. Users
// may split step definitions across many files; the loader consolidates them
// so dependencies can span files.
type Pipeline struct {
	Steps     []*Step
	Variables []*Variable
}

// fileSchema describes the top-level blocks of a pipeline file.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "step", LabelNames: []string{"runner", "name"}},
		{Type: "variable", LabelNames: []string{"name"}},
	},
}

// Load finds and parses all .hcl files under pipelinePath (a file or a
// directory) into a single Pipeline.
func Load(ctx context.Context, pipelinePath string) (*Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading pipeline from path", "path", pipelinePath)

	files, err := fsutil.FindFilesByExtension(pipelinePath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find pipeline files in %s: %w", pipelinePath, err)
	}
	if len(files) == 0 {
		logger.Warn("No .hcl pipeline files found in path", "path", pipelinePath)
		return &Pipeline{}, nil
	}

	pipeline := &Pipeline{}
	parser := hclparse.NewParser()
	for _, file := range files {
		if err := pipeline.loadFile(file, parser); err != nil {
			return nil, err
		}
	}

	if err := pipeline.checkDuplicates(); err != nil {
		return nil, err
	}

	logger.Info("Pipeline loaded.", "files", len(files), "steps", len(pipeline.Steps), "variables", len(pipeline.Variables))
	return pipeline, nil
}

// loadFile parses one pipeline file and appends its contents.
func (p *Pipeline) loadFile(filePath string, parser *hclparse.Parser) error {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse pipeline file %s: %w", filePath, diags)
	}

	content, diags := hclFile.Body.Content(fileSchema)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode pipeline file %s: %w", filePath, diags)
	}

	for _, block := range content.Blocks {
		switch block.Type {
		case "step":
			step, err := newStepFromBlock(block)
			if err != nil {
				return fmt.Errorf("in %s: %w", filePath, err)
			}
			p.Steps = append(p.Steps, step)
		case "variable":
			variable, err := newVariableFromBlock(block)
			if err != nil {
				return fmt.Errorf("in %s: %w", filePath, err)
			}
			p.Variables = append(p.Variables, variable)
		}
	}
	return nil
}

// checkDuplicates rejects pipelines where two steps share an address or two
// variables share a name.
func (p *Pipeline) checkDuplicates() error {
	seenSteps := make(map[string]hcl.Range, len(p.Steps))
	for _, s := range p.Steps {
		addr := s.Address()
		if prev, ok := seenSteps[addr]; ok {
			return fmt.Errorf("duplicate step %q at %s (first declared at %s)", addr, s.DeclRange, prev)
		}
		seenSteps[addr] = s.DeclRange
	}

	seenVars := make(map[string]hcl.Range, len(p.Variables))
	for _, v := range p.Variables {
		if prev, ok := seenVars[v.Name]; ok {
			return fmt.Errorf("duplicate variable %q at %s (first declared at %s)", v.Name, v.DeclRange, prev)
		}
		seenVars[v.Name] = v.DeclRange
	}
	return nil
}

// StepByAddress returns the step with the given "runner.name" address, or nil.
func (p *Pipeline) StepByAddress(addr string) *Step {
	for _, s := range p.Steps {
		if s.Address() == addr {
			return s
		}
	}
	return nil
}

package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/dag"
	"github.com/specialistvlad/addonforge/internal/model"
)

// Run executes the pipeline once. In watch mode it re-runs the pipeline
// whenever its source files change.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	if a.config.Watch {
		return a.watch(ctx)
	}
	return a.runOnce(ctx)
}

// runOnce loads the pipeline, builds the graph and drives it to completion.
func (a *App) runOnce(ctx context.Context) error {
	pipeline, err := model.Load(ctx, a.config.PipelinePath)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}
	a.logger.Debug("Pipeline loaded.", "steps", len(pipeline.Steps), "variables", len(pipeline.Variables))

	vars, err := model.VariableValues(pipeline.Variables, a.config.Vars)
	if err != nil {
		return err
	}

	a.logger.Debug("Building dependency graph from pipeline...")
	graph, err := dag.Build(ctx, pipeline, vars)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", len(graph.Nodes))
	a.logger.Info("Step runners registered:", "types", a.registry.RunnerTypes())

	if len(graph.Nodes) == 0 {
		a.logger.Warn("No nodes found in graph, execution not required.")
		return nil
	}

	a.logger.Info("🚀 Starting concurrent execution...")
	exec := dag.NewExecutor(graph, a.config.WorkerCount, a.registry, vars)
	if err := exec.Run(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")
	return nil
}

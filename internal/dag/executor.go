package dag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/registry"
)

// Executor drains a graph with a pool of concurrent workers.
type Executor struct {
	graph      *Graph
	numWorkers int
	registry   *registry.Registry
	vars       map[string]cty.Value

	wg sync.WaitGroup
}

// NewExecutor creates an executor for the given graph.
func NewExecutor(graph *Graph, numWorkers int, reg *registry.Registry, vars map[string]cty.Value) *Executor {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Executor{
		graph:      graph,
		numWorkers: numWorkers,
		registry:   reg,
		vars:       vars,
	}
}

// Run executes the entire graph concurrently and returns an error if any
// node fails. It respects the cancellation signal from the provided context.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *Node, len(e.graph.Nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootCount := 0
	for _, node := range e.graph.Nodes {
		if node.depCount.Load() == 0 {
			readyChan <- node
			rootCount++
		}
	}
	logger.Debug("Executor initialized.", "roots", rootCount, "nodes", len(e.graph.Nodes))

	e.wg.Add(len(e.graph.Nodes))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	e.wg.Wait()
	close(readyChan)

	return e.collectFailure()
}

// collectFailure summarizes the run, distinguishing the root-cause failure
// from the skip symptoms it triggered downstream.
func (e *Executor) collectFailure() error {
	var failed []string
	var rootCause error

	ids := make([]string, 0, len(e.graph.Nodes))
	for id := range e.graph.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := e.graph.Nodes[id]
		if node.State() != Failed || node.Err == nil {
			continue
		}
		if strings.HasPrefix(node.Err.Error(), "skipped") || errors.Is(node.Err, context.Canceled) {
			continue
		}
		failed = append(failed, node.ID)
		if rootCause == nil {
			rootCause = node.Err
		}
	}

	if rootCause != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}

// skipDependents recursively marks all downstream nodes as failed.
func (e *Executor) skipDependents(ctx context.Context, node *Node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range node.Dependents {
		dependent.skipOnce.Do(func() {
			logger.Warn("Skipping dependent step due to upstream failure.", "node", dependent.ID, "dependency", node.ID)
			dependent.Err = fmt.Errorf("skipped due to upstream failure of '%s'", node.ID)
			dependent.state.Store(int32(Failed))
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "worker", workerID)

	for node := range readyChan {
		workerLogger := logger.With("worker", workerID, "node", node.ID)

		if ctx.Err() != nil {
			node.skipOnce.Do(func() {
				workerLogger.Warn("Context canceled, skipping step execution.")
				node.Err = ctx.Err()
				node.state.Store(int32(Failed))
				e.wg.Done()
			})
			continue
		}

		node.state.Store(int32(Running))
		err := e.executeNode(ctx, node)
		if err != nil {
			workerLogger.Error("Step execution failed.", "error", err)
			node.Err = err
			node.state.Store(int32(Failed))
			cancel()
			e.skipDependents(ctx, node)
			e.wg.Done()
			continue
		}

		node.state.Store(int32(Done))

		for _, dependent := range node.Dependents {
			if dependent.depCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent step.", "dependent", dependent.ID)
				readyChan <- dependent
			}
		}

		e.wg.Done()
	}
	logger.Debug("Worker finished.", "worker", workerID)
}

package dag

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/addonforge/internal/model"
)

// NodeState tracks a node through its lifecycle.
type NodeState int32

const (
	Pending NodeState = iota
	Running
	Done
	Failed
)

// Node is a single step instance in the execution graph.
type Node struct {
	// ID is the unique node address, e.g. "step.manifest.addon[0]".
	ID string
	// Step is the configuration this instance was expanded from.
	Step *model.Step
	// Index is this instance's position within the step's count expansion.
	Index int
	// Count is the total number of instances of this step.
	Count int
	// Timeout bounds the node's execution; zero means no limit.
	Timeout time.Duration

	// Deps and Dependents are the graph edges, keyed by node ID. They are
	// written only during Build and read-only afterwards.
	Deps       map[string]*Node
	Dependents map[string]*Node

	// Output holds the step's result after successful execution, as a cty
	// object visible to dependent steps' expressions.
	Output cty.Value
	// Err records why the node failed or was skipped.
	Err error

	state    atomic.Int32
	depCount atomic.Int32
	skipOnce sync.Once
}

// State returns the node's current lifecycle state.
func (n *Node) State() NodeState {
	return NodeState(n.state.Load())
}

// setInitialCounters seeds the pending-dependency counter after linking.
func (n *Node) setInitialCounters() {
	n.depCount.Store(int32(len(n.Deps)))
}

// Graph is the complete execution graph. It is immutable after Build; the
// executor mutates only per-node atomics and results.
type Graph struct {
	Nodes map[string]*Node
}

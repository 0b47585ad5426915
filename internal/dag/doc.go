// Package dag builds and executes the step dependency graph.
//
// Build turns a loaded pipeline model into nodes and edges: one node per
// step instance (count expands a step into several), with explicit edges
// from depends_on and implicit edges discovered by walking argument
// expressions for step output references. Run then drains the graph with a
// fixed pool of workers, releasing each node as its dependency counter
// reaches zero. The first real failure cancels the run and skips all
// transitive dependents.
package dag

// Package workflow defines the pipeline graph model: typed nodes, directed
// edges, the store that owns them, and the pure validation functions that
// decide whether a proposed connection is legal and whether the whole graph
// is runnable.
//
// The graph is a three-stage pipeline: an input node feeds a generator node,
// which feeds one or more output nodes. Every node accepts at most one
// incoming edge, and only the adjacencies input -> generator and
// generator -> output are permitted.
//
// A Store is explicitly constructed with NewStore and scoped to the session
// that owns it; there is no package-level instance. All mutation goes through
// its methods, which maintain the graph invariants (no dangling edges, unique
// IDs, in-degree at most one).
package workflow

// Package pathfind finds every shortest path between two pages of the link
// graph.
//
// The search is a layered breadth-first search that records, for each
// discovered page, all predecessors that reach it in the layer it was first
// discovered. Once the target is discovered the current layer is finished,
// so every tied predecessor of the target is captured, and paths are then
// rebuilt by walking the predecessor lists back to the start.
//
// Removed (tombstoned) pages are treated as absent: edges into them are
// ignored and they are never returned as an endpoint.
//
// Design decision: Path reconstruction uses an explicit stack instead of
// recursion. Path length is unbounded in pathological graphs and the number
// of paths can grow combinatorially, so WithMaxPaths lets callers cap the
// output.
package pathfind

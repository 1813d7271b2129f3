// Package reasoner implements multi-hop path finding over the knowledge
// graph: bounded breadth-first search, cycle rejection, confidence-weighted
// ranking, and a cache of previously discovered paths.
package reasoner

import "github.com/opencite/litgraph/model"

// rejectCycles drops any path that revisits a node, the post-filter applied
// after BFS expansion since the search frontier itself may produce cyclic
// walks when the graph loops back through a shared hub node.
func rejectCycles(paths []model.Path) []model.Path {
	out := make([]model.Path, 0, len(paths))
	for _, p := range paths {
		if p.IsAcyclic() {
			out = append(out, p)
		}
	}
	return out
}

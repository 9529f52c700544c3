package cluster

import (
	"slices"

	"github.com/jwkaltz/gravitas/pkg/graph"
)

// Components groups transitively connected nodes via breadth-first search
// over the accumulated-weight adjacency. Neighbor links whose accumulated
// weight is below minWeight are ignored, so raising the threshold splits
// weakly joined groups apart.
//
// Components are emitted in order of their lexicographically smallest
// member, with members sorted, so identical graphs always produce identical
// output regardless of insertion order.
func Components(g *graph.Graph, minWeight float64) [][]string {
	visited := make(map[string]bool, g.NodeCount())
	var out [][]string

	for _, start := range g.NodeIDs() {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []string{start}
		var members []string

		for len(queue) > 0 {
			curr := queue[0]
			queue = queue[1:]
			members = append(members, curr)

			for _, nb := range g.Neighbors(curr) {
				if visited[nb] || g.Weight(curr, nb) < minWeight {
					continue
				}
				visited[nb] = true
				queue = append(queue, nb)
			}
		}

		slices.Sort(members)
		out = append(out, members)
	}
	return out
}

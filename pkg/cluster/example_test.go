package cluster_test

import (
	"fmt"

	"github.com/jwkaltz/gravitas/pkg/cluster"
	"github.com/jwkaltz/gravitas/pkg/graph"
)

// Demonstrates clustering a graph with one connected triple and one pair
// too small to cluster.
func ExampleFind() {
	g := graph.New()
	for _, id := range []string{"api", "auth", "db", "cache", "queue"} {
		if err := g.AddNode(graph.Node{ID: id}); err != nil {
			fmt.Println("error:", err)
			return
		}
	}
	for _, e := range [][2]string{{"api", "auth"}, {"auth", "db"}, {"cache", "queue"}} {
		if err := g.AddEdge(graph.Edge{Source: e[0], Target: e[1], Weight: 1}); err != nil {
			fmt.Println("error:", err)
			return
		}
	}

	clusters, err := cluster.Find(g, cluster.Options{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, c := range clusters {
		fmt.Println(c.ID, c.NodeIDs)
	}
	// Output:
	// 0 [api auth db]
}

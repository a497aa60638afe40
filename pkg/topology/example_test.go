package topology_test

import (
	"fmt"

	"github.com/flowviz/flowviz/pkg/topology"
)

func ExampleTopology_AddEdge() {
	t := topology.New()
	t.AddEdge("api", "db", "", "")

	fmt.Println("nodes:", t.NodeCount())
	fmt.Println("edges:", t.EdgeCount())
	e := t.Edges[0]
	fmt.Printf("%s -> %s (%s/%s)\n", e.From, e.To, e.FromSide, e.ToSide)
	// Output:
	// nodes: 2
	// edges: 1
	// api -> db (right/left)
}

func ExampleValidate() {
	t := topology.New()
	t.AddSubsystem("X", []string{"Y"}, "")

	res := topology.Validate(t)
	fmt.Println("valid:", res.Valid)
	for _, e := range res.Errors {
		fmt.Println(e)
	}
	// Output:
	// valid: false
	// Subsystem "X" references unknown node: Y
}

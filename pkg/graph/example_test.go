package graph_test

import (
	"fmt"

	"github.com/matzehuels/linkboard/pkg/graph"
)

func ExampleGraph() {
	cat := graph.DefaultCatalog()
	nt := cat.Default()

	g := graph.New()
	a := nt.New(g.NextNodeID(), 100, 100)
	b := nt.New(g.NextNodeID(), 200, 100)
	_ = g.AddNode(a)
	_ = g.AddNode(b)

	fmt.Println(g.AddLink(cat.NewLink(a.ID, b.ID)))
	fmt.Println(g.AddLink(cat.NewLink(b.ID, a.ID)))
	fmt.Println("links:", g.LinkCount())
	// Output:
	// <nil>
	// DUPLICATE_LINK: a link between these nodes already exists: node-2 and node-1
	// links: 1
}

func ExampleGraph_RemoveNode() {
	g := graph.New()
	for _, id := range []string{"app", "lib", "core"} {
		_ = g.AddNode(graph.NewNode(id, graph.DefaultNodeType, 0, 0, graph.DefaultRadius, nil))
	}
	_ = g.AddLink(graph.NewLink("app", "lib", nil))
	_ = g.AddLink(graph.NewLink("lib", "core", nil))
	_ = g.AddLink(graph.NewLink("app", "core", nil))

	g.RemoveNode("lib")
	for _, l := range g.Links() {
		fmt.Println(l.ID())
	}
	// Output:
	// app-core
}

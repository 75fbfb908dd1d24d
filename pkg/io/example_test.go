package io_test

import (
	"fmt"

	"github.com/matzehuels/linkboard/pkg/io"
)

func ExampleImportDocument() {
	doc := []byte(`{
	  "nodes": [
	    {"id": "node-1", "x": 100, "y": 100, "childrenIds": ["node-2", "node-7"], "label": "api"},
	    {"id": "node-2", "x": 200, "y": 100}
	  ],
	  "notes": "ignored"
	}`)

	g, report, err := io.ImportDocument(doc, nil, io.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("nodes:", g.NodeCount(), "links:", g.LinkCount())
	fmt.Println("next id:", g.NextNodeID())
	for _, d := range report.Diagnostics {
		fmt.Println(d)
	}
	fmt.Println("ignored:", report.IgnoredKeys)
	// Output:
	// nodes: 2 links: 1
	// next id: node-3
	// DANGLING_REFERENCE node-1: child "node-7" does not exist
	// ignored: [notes]
}

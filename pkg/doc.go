// Package pkg provides the core libraries of Linkboard, an editor for
// node-link diagrams whose nodes and links carry typed attribute trees.
//
// # Overview
//
// A diagram is a set of positioned circular nodes joined by directed links.
// Every node type declares a schema describing its attributes; the value
// tree of each entity always conforms to that schema. The pkg directory is
// organized in layers:
//
//  1. [schema] - Attribute schemas, immutable value trees and path edits
//  2. [graph] - Nodes, links and the node-type catalog
//  3. [io] - The JSON document format (import with diagnostics, export)
//  4. [selection] and [canvas] - The selection store and the interaction
//     state machine driven by pointer and key events
//  5. [session] - One editing session: event dispatch, coalesced property
//     edits, snapshots and a registry for hosts
//  6. [render] and [pipeline] - SVG, PNG, PDF and DOT output, cached by
//     document hash
//
// # Architecture
//
// The typical data flow through an editing session:
//
//	pointer / key event
//	         ↓
//	    [canvas] Machine.Step(graph, selection, event)
//	         ↓
//	    new graph snapshot + selection
//	         ↓
//	    [session] View → [render/board] SVG
//
// Graphs are never mutated in place once published: every change produces a
// new snapshot, so a renderer holding a [session.View] always sees a
// consistent graph.
//
// # Quick Start
//
//	s := session.New(session.Config{})
//	s.SetTool(ctx, canvas.ToolNode)
//	s.Dispatch(ctx, canvas.PointerDown{Pos: canvas.Point{X: 100, Y: 100}})
//	s.EditPath(ctx, selection.Node("node-1"), schema.MustParsePath("label"), schema.Str("start"))
//	s.Flush(ctx)
//	doc, _ := s.Export(ctx)
//
// # Supporting Packages
//
// [config] - TOML, YAML or JSON configuration: node types, editor settings
// and server settings.
//
// [cache] - Artifact cache for rendered output (file-based or disabled).
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for metrics and tracing of editor, cache and HTTP
// events.
//
// [buildinfo] - Version information set at build time.
//
// [schema]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/schema
// [graph]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/graph
// [io]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/io
// [selection]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/selection
// [canvas]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/canvas
// [session]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/session
// [session.View]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/session#View
// [render]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/render
// [render/board]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/render/board
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/linkboard/pkg/buildinfo
package pkg

// Package io converts diagrams to and from their JSON document form.
//
// # Document Format
//
// Nodes are grouped by type. Each type is stored under its document key,
// the lowercase plural of the type name ([graph.TypeKey]):
//
//	{
//	  "nodes": [
//	    {"id": "node-1", "x": 100, "y": 100, "childrenIds": ["node-2"],
//	     "label": "api", "items": [{"field1": "abc"}],
//	     "linkValues": {"node-2": {"priority": 2}}},
//	    {"id": "node-2", "x": 200, "y": 100, "childrenIds": []}
//	  ]
//	}
//
// Reserved node keys:
//   - id: unique node identifier
//   - x, y: center position
//   - childrenIds: target IDs of the links leaving this node, in link order
//   - linkValues: attributes of those links, keyed by target ID (omitted
//     when no outgoing link has attributes set)
//
// Every other key is a flattened attribute of the node: the value tree with
// all schema information stripped, so strings, numbers, booleans, objects
// and arrays appear exactly as they would in hand-written JSON.
//
// # Decoding
//
// [Decode] runs two passes. The first creates every node of every known type
// in document order, after resetting the ID counter so that it ends up one
// past the largest node-<n> suffix loaded. The second creates the links
// listed in childrenIds. Unknown top-level keys are ignored.
//
// Problems that leave the document usable are recovered and reported in a
// [Report]:
//   - childrenIds entries naming a missing node (DANGLING_REFERENCE)
//   - a second link between the same two nodes (DUPLICATE_LINK)
//   - attributes that do not fit the type schema (INVALID_VALUE), when
//     decoding in [schema.Lenient] mode
//
// In [schema.Strict] mode a mismatched attribute fails the whole decode.
// Structural problems, such as invalid JSON, a type key that is not an
// array, or a node without an id, always fail with MALFORMED_DOCUMENT.
//
// Decoding builds a new graph. A failed decode never touches an existing one.
//
// # Round Trip
//
// For every graph g, Decode(Encode(g)) has the same node IDs, positions,
// attribute trees and link set as g. Link order may differ.
package io

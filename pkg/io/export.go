package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/schema"
)

// Document is the plain form of a diagram: document keys mapped to the
// flattened nodes of that type.
type Document map[string]any

// Encode converts g to its document form.
func Encode(g *graph.Graph) Document {
	doc := Document{}
	for _, n := range g.Nodes() {
		key := graph.TypeKey(n.Type)
		list, _ := doc[key].([]any)
		doc[key] = append(list, encodeNode(g, n))
	}
	return doc
}

func encodeNode(g *graph.Graph, n graph.Node) map[string]any {
	entry := map[string]any{}
	if fields, ok := schema.Flatten(n.Value).(map[string]any); ok {
		entry = fields
	}
	entry[graph.KeyID] = n.ID
	entry[graph.KeyX] = n.X
	entry[graph.KeyY] = n.Y

	children := []any{}
	linkValues := map[string]any{}
	for _, l := range g.Links() {
		if l.SourceID != n.ID {
			continue
		}
		children = append(children, l.TargetID)
		if l.Value.IsSet() && l.Value.Len() > 0 {
			linkValues[l.TargetID] = schema.Flatten(l.Value)
		}
	}
	entry[graph.KeyChildrenIDs] = children
	if len(linkValues) > 0 {
		entry[graph.KeyLinkValues] = linkValues
	}
	return entry
}

// WriteJSON encodes g as an indented JSON document and writes it to w.
func WriteJSON(g *graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Encode(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportDocument returns the JSON text of g.
func ExportDocument(g *graph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFile writes g to path. The file is written to a temporary file in
// the same directory and renamed into place, so readers never observe a
// partially written document.
func ExportFile(g *graph.Graph, path string) error {
	data, err := ExportDocument(g)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// WriteFile atomically replaces path with data, as [ExportFile] does.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".linkboard-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/schema"
)

// Options control decoding.
type Options struct {
	// Mode selects how attributes that do not fit the type schema are
	// handled. The zero value is [schema.Lenient].
	Mode schema.Mode

	// Logger receives one warning per recovered problem. Nil discards them.
	Logger *log.Logger
}

// Diagnostic describes one problem recovered while decoding.
type Diagnostic struct {
	Code    errors.Code
	NodeID  string
	Path    string
	Message string
}

func (d Diagnostic) String() string {
	s := string(d.Code) + " " + d.NodeID
	if d.Path != "" {
		s += " " + d.Path
	}
	return s + ": " + d.Message
}

// Report lists what a decode dropped or ignored.
type Report struct {
	Diagnostics []Diagnostic

	// IgnoredKeys lists top-level document keys that match no node type.
	IgnoredKeys []string
}

// OK reports whether nothing was dropped.
func (r Report) OK() bool { return len(r.Diagnostics) == 0 }

// Count returns the number of diagnostics with the given code.
func (r Report) Count(code errors.Code) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Code == code {
			n++
		}
	}
	return n
}

type pendingNode struct {
	id         string
	children   []string
	linkValues map[string]any
}

type decoder struct {
	cat    *graph.Catalog
	opts   Options
	report Report
}

// Decode builds a new graph from a document using the node types of cat.
func Decode(doc Document, cat *graph.Catalog, opts Options) (*graph.Graph, Report, error) {
	if cat == nil {
		cat = graph.DefaultCatalog()
	}
	d := &decoder{cat: cat, opts: opts}
	g, err := d.decode(doc)
	if err != nil {
		return nil, Report{}, err
	}
	return g, d.report, nil
}

func (d *decoder) decode(doc Document) (*graph.Graph, error) {
	g := graph.New()
	g.ResetCounter()

	for _, key := range slices.Sorted(maps.Keys(doc)) {
		if _, ok := d.cat.TypeForKey(key); !ok {
			d.report.IgnoredKeys = append(d.report.IgnoredKeys, key)
		}
	}

	var pending []pendingNode
	for _, nt := range d.cat.Types() {
		raw, ok := doc[nt.Key()]
		if !ok || raw == nil {
			continue
		}
		entries, ok := raw.([]any)
		if !ok {
			return nil, malformed("%q must be an array", nt.Key())
		}
		for i, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				return nil, malformed("%s[%d] must be an object", nt.Key(), i)
			}
			p, err := d.node(g, nt, entry, i)
			if err != nil {
				return nil, err
			}
			pending = append(pending, p)
		}
	}

	for _, p := range pending {
		if err := d.links(g, p); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (d *decoder) node(g *graph.Graph, nt graph.NodeType, entry map[string]any, i int) (pendingNode, error) {
	id, ok := entry[graph.KeyID].(string)
	if !ok || id == "" {
		return pendingNode{}, malformed("%s[%d]: missing string id", nt.Key(), i)
	}
	x, err := coord(entry, graph.KeyX, id)
	if err != nil {
		return pendingNode{}, err
	}
	y, err := coord(entry, graph.KeyY, id)
	if err != nil {
		return pendingNode{}, err
	}
	children, err := childIDs(entry[graph.KeyChildrenIDs], id)
	if err != nil {
		return pendingNode{}, err
	}
	var linkValues map[string]any
	if raw, ok := entry[graph.KeyLinkValues]; ok && raw != nil {
		if linkValues, ok = raw.(map[string]any); !ok {
			return pendingNode{}, malformed("node %s: %s must be an object", id, graph.KeyLinkValues)
		}
	}

	attrs := make(map[string]any, len(entry))
	for k, v := range entry {
		if !graph.IsReservedKey(k) {
			attrs[k] = v
		}
	}
	value, diags, err := schema.Unflatten(nt.Schema, attrs, d.opts.Mode)
	if err != nil {
		return pendingNode{}, fmt.Errorf("node %s: %w", id, err)
	}
	for _, diag := range diags {
		d.warn(Diagnostic{Code: errors.ErrCodeInvalidValue, NodeID: id, Path: diag.Path.String(), Message: diag.Reason})
	}

	n := nt.New(id, x, y)
	n.Value = value
	if err := g.AddNode(n); err != nil {
		return pendingNode{}, errors.Wrap(errors.ErrCodeMalformedDocument, err, "node %s", id)
	}
	return pendingNode{id: id, children: children, linkValues: linkValues}, nil
}

func (d *decoder) links(g *graph.Graph, p pendingNode) error {
	for _, target := range p.children {
		if !g.HasNode(target) {
			d.warn(Diagnostic{Code: errors.ErrCodeDanglingReference, NodeID: p.id, Message: fmt.Sprintf("child %q does not exist", target)})
			continue
		}
		l := d.cat.NewLink(p.id, target)
		if raw, ok := p.linkValues[target]; ok && raw != nil && l.Schema != nil {
			v, diags, err := schema.Unflatten(l.Schema, raw, d.opts.Mode)
			if err != nil {
				return fmt.Errorf("link %s: %w", l.ID(), err)
			}
			for _, diag := range diags {
				d.warn(Diagnostic{Code: errors.ErrCodeInvalidValue, NodeID: p.id, Path: graph.KeyLinkValues + "." + target + pathSuffix(diag.Path), Message: diag.Reason})
			}
			l.Value = v
		}
		if err := g.AddLink(l); err != nil {
			d.warn(Diagnostic{Code: errors.GetCode(err), NodeID: p.id, Message: errors.UserMessage(err) + " (" + target + ")"})
		}
	}
	for target := range p.linkValues {
		if !slices.Contains(p.children, target) {
			d.warn(Diagnostic{Code: errors.ErrCodeDanglingReference, NodeID: p.id, Path: graph.KeyLinkValues + "." + target, Message: "no matching child"})
		}
	}
	return nil
}

func (d *decoder) warn(diag Diagnostic) {
	d.report.Diagnostics = append(d.report.Diagnostics, diag)
	if d.opts.Logger != nil {
		d.opts.Logger.Warn("dropped", "code", diag.Code, "node", diag.NodeID, "path", diag.Path, "reason", diag.Message)
	}
}

func pathSuffix(p schema.Path) string {
	if len(p) == 0 {
		return ""
	}
	if p[0].IsIndex {
		return p.String()
	}
	return "." + p.String()
}

func coord(entry map[string]any, key, id string) (float64, error) {
	raw, ok := entry[key]
	if !ok || raw == nil {
		return 0, nil
	}
	f, ok := raw.(float64)
	if !ok {
		if n, isNum := raw.(json.Number); isNum {
			v, err := n.Float64()
			f, ok = v, err == nil
		}
	}
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, malformed("node %s: %s must be a finite number", id, key)
	}
	return f, nil
}

func childIDs(raw any, id string) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, malformed("node %s: %s must be an array", id, graph.KeyChildrenIDs)
	}
	out := make([]string, 0, len(list))
	for _, c := range list {
		s, ok := c.(string)
		if !ok {
			return nil, malformed("node %s: %s must contain strings", id, graph.KeyChildrenIDs)
		}
		out = append(out, s)
	}
	return out, nil
}

func malformed(format string, args ...any) error {
	return errors.New(errors.ErrCodeMalformedDocument, format, args...)
}

// ReadJSON decodes a JSON document from r. r must hold exactly one JSON
// value; anything but whitespace after it is malformed.
func ReadJSON(r io.Reader, cat *graph.Catalog, opts Options) (*graph.Graph, Report, error) {
	var raw any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, Report{}, errors.Wrap(errors.ErrCodeMalformedDocument, err, "decode")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, Report{}, errors.Wrap(errors.ErrCodeMalformedDocument, err, "trailing data after document")
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, Report{}, malformed("document must be a JSON object")
	}
	return Decode(doc, cat, opts)
}

// ImportDocument decodes JSON text into a new graph.
func ImportDocument(data []byte, cat *graph.Catalog, opts Options) (*graph.Graph, Report, error) {
	return ReadJSON(bytes.NewReader(data), cat, opts)
}

// ImportFile reads and decodes the document at path.
func ImportFile(path string, cat *graph.Catalog, opts Options) (*graph.Graph, Report, error) {
	if err := errors.ValidateDocumentPath(path); err != nil {
		return nil, Report{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	return ImportDocument(data, cat, opts)
}

package board

import (
	"bytes"
	"encoding/xml"

	"github.com/matzehuels/linkboard/pkg/graph"
)

const (
	fontCharWidth = 0.55
	fontSizeMin   = 6.0
	fontSizeMax   = 14.0
	labelFill     = 1.6 // usable label width as a multiple of the radius
)

// Label returns the text shown for n: the string attribute named field
// when it is set and non-empty, otherwise the node ID.
func Label(n graph.Node, field string) string {
	if field != "" {
		if v, ok := n.Value.Get(field); ok {
			if s, ok := v.AsString(); ok && s != "" {
				return s
			}
		}
	}
	return n.ID
}

// FontSize picks a size that fits label inside a circle of radius r.
func FontSize(label string, r float64) float64 {
	n := max(1, len([]rune(label)))
	byWidth := (r * labelFill) / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, byWidth, r*0.8))
}

// TruncateLabel shortens label to what fits at the minimum font size.
func TruncateLabel(label string, r float64) string {
	runes := []rune(label)
	maxChars := max(3, int((r*labelFill)/(fontSizeMin*fontCharWidth)))
	if len(runes) <= maxChars {
		return label
	}
	return string(runes[:maxChars-2]) + ".."
}

func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

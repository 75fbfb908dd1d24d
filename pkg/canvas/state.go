package canvas

import (
	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/selection"
)

// DragThreshold is the distance in canvas units a pressed pointer must move
// before the press becomes a drag.
const DragThreshold = 3.0

// SelectionBox is an active rubber-band gesture.
type SelectionBox struct {
	Origin  Point
	Current Point
}

// Rect returns the normalized box.
func (b SelectionBox) Rect() Rect { return NormalizeRect(b.Origin, b.Current) }

// PanGesture is an active pan. Last is the screen position of the previous
// pointer event.
type PanGesture struct {
	Last Point
}

// Press is a primary-button press on a node or link that has not yet been
// resolved into a click or a drag.
type Press struct {
	NodeID   string
	Link     *graph.LinkKey
	Origin   Point
	Last     Point
	Modifier bool
	Dragging bool
}

// State is the interaction state exposed for rendering. Box, Pan and
// Press are nil when inactive; at most one of them is set.
type State struct {
	Tool       Tool
	LinkSource string
	Box        *SelectionBox
	Pan        *PanGesture
	Press      *Press
	Viewport   Viewport
}

// Busy reports whether a gesture is in progress.
func (s State) Busy() bool {
	return s.Box != nil || s.Pan != nil || s.Press != nil
}

// DrawerVisible reports whether the property panel should be shown:
// exactly when the select tool is active and one entity is selected.
func DrawerVisible(tool Tool, sel selection.Set) bool {
	return tool == ToolSelect && sel.Len() == 1
}

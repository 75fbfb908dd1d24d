package canvas

import "github.com/matzehuels/linkboard/pkg/graph"

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Event is an input the [Machine] understands. The set is closed; each
// event type below is handled explicitly by [Machine.Step].
type Event interface {
	isEvent()
}

// PointerDown is a button press. Pos is in canvas coordinates, Screen in
// screen coordinates (used for panning, which moves the canvas itself).
// Modifier is true while Ctrl or Cmd is held.
type PointerDown struct {
	Pos      Point
	Screen   Point
	Button   Button
	Modifier bool
}

// PointerMove is pointer motion, with or without a button held.
type PointerMove struct {
	Pos      Point
	Screen   Point
	Modifier bool
}

// PointerUp is a button release.
type PointerUp struct {
	Pos      Point
	Screen   Point
	Modifier bool
}

// NodeClick is a click on a node, for hosts that hit-test themselves.
type NodeClick struct {
	NodeID   string
	Modifier bool
}

// NodeDrag moves the pointer by (DX, DY) canvas units while dragging a node.
type NodeDrag struct {
	NodeID string
	DX, DY float64
}

// LinkClick is a click on a link.
type LinkClick struct {
	Link     graph.LinkKey
	Modifier bool
}

// Key names understood by [KeyDown].
const (
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyEscape    = "Escape"
)

// KeyDown is a key press. Unknown keys are ignored.
type KeyDown struct {
	Key string
}

// SetTool is a toolbar button press. Pressing the active tool deactivates it.
type SetTool struct {
	Tool Tool
}

func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (NodeClick) isEvent()   {}
func (NodeDrag) isEvent()    {}
func (LinkClick) isEvent()   {}
func (KeyDown) isEvent()     {}
func (SetTool) isEvent()     {}

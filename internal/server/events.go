package server

import (
	"github.com/matzehuels/linkboard/pkg/canvas"
	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/graph"
)

// eventRequest is the wire form of a canvas event. Type selects which of
// the other fields apply. Screen coordinates default to the canvas ones.
type eventRequest struct {
	Type     string   `json:"type" validate:"required,oneof=pointer_down pointer_move pointer_up node_click node_drag link_click key_down set_tool"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	ScreenX  *float64 `json:"screen_x,omitempty"`
	ScreenY  *float64 `json:"screen_y,omitempty"`
	Button   string   `json:"button,omitempty" validate:"omitempty,oneof=primary middle secondary"`
	Modifier bool     `json:"modifier,omitempty"`
	NodeID   string   `json:"node_id,omitempty"`
	DX       float64  `json:"dx,omitempty"`
	DY       float64  `json:"dy,omitempty"`
	Source   string   `json:"source,omitempty"`
	Target   string   `json:"target,omitempty"`
	Key      string   `json:"key,omitempty"`
	Tool     string   `json:"tool,omitempty"`
}

type eventsRequest struct {
	Events []eventRequest `json:"events" validate:"required,min=1,max=1000,dive"`
}

var buttons = map[string]canvas.Button{
	"":          canvas.ButtonPrimary,
	"primary":   canvas.ButtonPrimary,
	"middle":    canvas.ButtonMiddle,
	"secondary": canvas.ButtonSecondary,
}

// Event converts the request to a canvas event.
func (e eventRequest) Event() (canvas.Event, error) {
	pos := canvas.Point{X: e.X, Y: e.Y}
	screen := pos
	if e.ScreenX != nil {
		screen.X = *e.ScreenX
	}
	if e.ScreenY != nil {
		screen.Y = *e.ScreenY
	}

	switch e.Type {
	case "pointer_down":
		return canvas.PointerDown{Pos: pos, Screen: screen, Button: buttons[e.Button], Modifier: e.Modifier}, nil
	case "pointer_move":
		return canvas.PointerMove{Pos: pos, Screen: screen, Modifier: e.Modifier}, nil
	case "pointer_up":
		return canvas.PointerUp{Pos: pos, Screen: screen, Modifier: e.Modifier}, nil
	case "node_click":
		if e.NodeID == "" {
			return nil, missing(e.Type, "node_id")
		}
		return canvas.NodeClick{NodeID: e.NodeID, Modifier: e.Modifier}, nil
	case "node_drag":
		if e.NodeID == "" {
			return nil, missing(e.Type, "node_id")
		}
		return canvas.NodeDrag{NodeID: e.NodeID, DX: e.DX, DY: e.DY}, nil
	case "link_click":
		if e.Source == "" || e.Target == "" {
			return nil, missing(e.Type, "source and target")
		}
		return canvas.LinkClick{Link: graph.LinkKey{SourceID: e.Source, TargetID: e.Target}, Modifier: e.Modifier}, nil
	case "key_down":
		if e.Key == "" {
			return nil, missing(e.Type, "key")
		}
		return canvas.KeyDown{Key: e.Key}, nil
	case "set_tool":
		t, err := canvas.ParseTool(e.Tool)
		if err != nil {
			return nil, err
		}
		return canvas.SetTool{Tool: t}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown event type %q", e.Type)
}

func missing(typ, field string) error {
	return errors.New(errors.ErrCodeInvalidInput, "%s event requires %s", typ, field)
}

// eventResult reports the outcome of one event.
type eventResult struct {
	GraphChanged     bool   `json:"graph_changed"`
	SelectionChanged bool   `json:"selection_changed"`
	Created          string `json:"created,omitempty"`
	Rejected         string `json:"rejected,omitempty"`
}

func newEventResult(res canvas.Result) eventResult {
	out := eventResult{
		GraphChanged:     res.GraphChanged,
		SelectionChanged: res.SelectionChanged,
		Created:          res.Created,
	}
	if res.Rejected != nil {
		out.Rejected = res.Rejected.Error()
	}
	return out
}

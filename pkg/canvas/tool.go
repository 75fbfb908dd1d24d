package canvas

import (
	"strings"

	"github.com/matzehuels/linkboard/pkg/errors"
)

// Tool is the active editing mode.
type Tool int

const (
	// ToolNone means no tool is active. Clicks and drags do nothing but
	// panning and deletion still work.
	ToolNone Tool = iota
	ToolSelect
	ToolNode
	ToolLink
)

var toolNames = [...]string{
	ToolNone:   "none",
	ToolSelect: "select",
	ToolNode:   "node",
	ToolLink:   "link",
}

func (t Tool) String() string {
	if int(t) >= 0 && int(t) < len(toolNames) {
		return toolNames[t]
	}
	return "unknown"
}

// ParseTool converts a tool name to a Tool. Matching is case-insensitive.
func ParseTool(s string) (Tool, error) {
	for i, name := range toolNames {
		if strings.EqualFold(s, name) {
			return Tool(i), nil
		}
	}
	return ToolNone, errors.New(errors.ErrCodeInvalidInput, "unknown tool %q", s)
}

// Toggle returns the tool that results from pressing t's toolbar button
// while cur is active: pressing the active tool turns it off.
func Toggle(cur, t Tool) Tool {
	if cur == t {
		return ToolNone
	}
	return t
}

package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/linkboard/pkg/canvas"
	lbio "github.com/matzehuels/linkboard/pkg/io"
	"github.com/matzehuels/linkboard/pkg/selection"
	"github.com/matzehuels/linkboard/pkg/session"
)

func newTestEditor(t *testing.T) *editorModel {
	t.Helper()
	s := session.New(session.Config{CoalesceWindow: -1})
	t.Cleanup(s.Close)
	m := newEditorModel(context.Background(), s, filepath.Join(t.TempDir(), "board.json"))
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	return m
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func click(m *editorModel, col, row int) {
	m.Update(tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
}

func TestEditorCreateAndSelect(t *testing.T) {
	m := newTestEditor(t)

	m.Update(keyMsg("n"))
	if got := m.s.Tool(); got != canvas.ToolNode {
		t.Fatalf("tool = %v, want node", got)
	}
	click(m, 10, 5)
	if n := m.s.Graph().NodeCount(); n != 1 {
		t.Fatalf("NodeCount = %d, want 1", n)
	}

	m.Update(keyMsg("s"))
	click(m, 10, 5)
	v := m.s.View()
	if !v.Selection.Only(selection.Node("node-1")) {
		t.Fatalf("selection = %v, want node-1", v.Selection.Refs())
	}
	if !v.DrawerVisible {
		t.Error("drawer hidden for a single selection")
	}
	if out := m.View(); !strings.Contains(out, "node:node-1") {
		t.Errorf("panel does not show the selected node:\n%s", out)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDelete})
	if n := m.s.Graph().NodeCount(); n != 0 {
		t.Errorf("NodeCount after delete = %d, want 0", n)
	}
}

func TestEditorIgnoresPanelClicks(t *testing.T) {
	m := newTestEditor(t)
	m.Update(keyMsg("n"))
	click(m, 10, 29)
	if n := m.s.Graph().NodeCount(); n != 0 {
		t.Errorf("click on the panel created %d nodes", n)
	}
}

func TestEditorSave(t *testing.T) {
	m := newTestEditor(t)
	m.Update(keyMsg("n"))
	click(m, 3, 3)
	click(m, 20, 3)

	m.Update(keyMsg("w"))
	if m.saveErr != nil {
		t.Fatal(m.saveErr)
	}
	g, _, err := lbio.ImportFile(m.path, nil, lbio.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 {
		t.Errorf("saved %d nodes, want 2", g.NodeCount())
	}

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Error("q did not quit")
	}
	if _, err := os.Stat(m.path); err != nil {
		t.Error(err)
	}
}

func TestCellMapping(t *testing.T) {
	vp := canvas.Viewport{X: 100, Y: -40, Width: 800, Height: 600}
	for _, c := range [][2]int{{0, 0}, {7, 3}, {59, 20}} {
		_, pos := cellToCanvas(vp, c[0], c[1])
		col, row := canvasToCell(vp, pos)
		if col != c[0] || row != c[1] {
			t.Errorf("round trip (%d,%d) -> %v -> (%d,%d)", c[0], c[1], pos, col, row)
		}
	}
}

func TestGridLine(t *testing.T) {
	g := newGrid(5, 3)
	g.line(0, 0, 4, 2, '*', nil)
	want := "*    \n **  \n   **"
	if got := g.String(); got != want {
		t.Errorf("grid =\n%s\nwant\n%s", got, want)
	}
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkboard/pkg/canvas"
	"github.com/matzehuels/linkboard/pkg/graph"
	lbio "github.com/matzehuels/linkboard/pkg/io"
	"github.com/matzehuels/linkboard/pkg/schema"
	"github.com/matzehuels/linkboard/pkg/selection"
	"github.com/matzehuels/linkboard/pkg/session"
)

// Canvas units covered by one terminal cell. Cells are roughly twice as
// tall as they are wide.
const (
	cellWidth  = 10.0
	cellHeight = 20.0
)

// panelHeight is the number of terminal rows below the canvas.
const panelHeight = 9

var (
	styleNode     = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	styleSource   = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	styleLink     = lipgloss.NewStyle().Foreground(colorGray)
	styleBox      = lipgloss.NewStyle().Foreground(colorCyan)
	stylePanel    = lipgloss.NewStyle().BorderTop(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorDim)
)

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit FILE",
		Short: "Edit a diagram in the terminal",
		Long: `Open a diagram in an interactive terminal editor.

Keys:
  s / n / l    toggle the select, node and link tools
  del, bksp    delete the selection
  esc          cancel the current gesture or link
  w            save
  q            save and quit

Use the mouse to click, drag and rubber-band select. Hold ctrl to extend the
selection; drag with the right button to pan. A missing FILE is created on save.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runEdit(ctx context.Context, path string) error {
	scfg, err := c.sessionConfig()
	if err != nil {
		return err
	}

	var s *session.Session
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		s = session.New(scfg)
	} else {
		var report lbio.Report
		s, report, err = loadSession(ctx, path, scfg)
		if err != nil {
			return err
		}
		printReport(report)
	}
	defer s.Close()

	m := newEditorModel(ctx, s, path)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved {
		printSuccess("Saved %s", path)
	}
	return nil
}

// editorModel is the bubbletea model of the terminal editor. It is used
// through a pointer so the caller can read the final save result.
type editorModel struct {
	ctx     context.Context
	s       *session.Session
	path    string
	width   int
	height  int
	status  string
	saved   bool
	saveErr error
}

func newEditorModel(ctx context.Context, s *session.Session, path string) *editorModel {
	return &editorModel{ctx: ctx, s: s, path: path, width: 80, height: 24}
}

func (m *editorModel) Init() tea.Cmd { return nil }

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		rows := max(m.height-panelHeight, 1)
		m.s.Resize(float64(m.width)*cellWidth, float64(rows)*cellHeight)
	case tea.KeyMsg:
		return m, m.key(msg)
	case tea.MouseMsg:
		m.mouse(msg)
	}
	return m, nil
}

func (m *editorModel) key(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		m.save()
		return tea.Quit
	case "w", "ctrl+s":
		if m.save() {
			m.status = "saved " + m.path
		}
	case "s":
		m.setTool(canvas.ToolSelect)
	case "n":
		m.setTool(canvas.ToolNode)
	case "l":
		m.setTool(canvas.ToolLink)
	case "delete":
		m.dispatch(canvas.KeyDown{Key: canvas.KeyDelete})
	case "backspace":
		m.dispatch(canvas.KeyDown{Key: canvas.KeyBackspace})
	case "esc":
		m.dispatch(canvas.KeyDown{Key: canvas.KeyEscape})
	}
	return nil
}

func (m *editorModel) setTool(t canvas.Tool) {
	m.status = "tool: " + m.s.SetTool(m.ctx, t).String()
}

func (m *editorModel) dispatch(ev canvas.Event) {
	res := m.s.Dispatch(m.ctx, ev)
	switch {
	case res.Rejected != nil:
		m.status = res.Rejected.Error()
	case res.Created != "":
		m.status = "created " + res.Created
	}
}

func (m *editorModel) mouse(msg tea.MouseMsg) {
	if msg.Y >= m.canvasRows() {
		return
	}
	vp := m.s.View().State.Viewport
	screen, pos := cellToCanvas(vp, msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		btn := canvas.ButtonPrimary
		switch msg.Button {
		case tea.MouseButtonLeft:
		case tea.MouseButtonMiddle:
			btn = canvas.ButtonMiddle
		case tea.MouseButtonRight:
			btn = canvas.ButtonSecondary
		default:
			return
		}
		m.dispatch(canvas.PointerDown{Pos: pos, Screen: screen, Button: btn, Modifier: msg.Ctrl})
	case tea.MouseActionMotion:
		m.dispatch(canvas.PointerMove{Pos: pos, Screen: screen, Modifier: msg.Ctrl})
	case tea.MouseActionRelease:
		m.dispatch(canvas.PointerUp{Pos: pos, Screen: screen, Modifier: msg.Ctrl})
	}
}

// save commits pending edits and writes the document.
func (m *editorModel) save() bool {
	m.s.Flush(m.ctx)
	data, err := m.s.Export(m.ctx)
	if err == nil {
		err = lbio.WriteFile(m.path, data)
	}
	m.saveErr = err
	if err != nil {
		m.status = "save failed: " + err.Error()
		return false
	}
	m.saved = true
	return true
}

func (m *editorModel) canvasRows() int { return max(m.height-panelHeight, 1) }

// cellToCanvas maps a terminal cell to screen and canvas coordinates.
// Screen units match canvas units so panning tracks the pointer.
func cellToCanvas(vp canvas.Viewport, col, row int) (screen, pos canvas.Point) {
	screen = canvas.Point{X: (float64(col) + 0.5) * cellWidth, Y: (float64(row) + 0.5) * cellHeight}
	return screen, canvas.Point{X: vp.X + screen.X, Y: vp.Y + screen.Y}
}

// canvasToCell returns the cell containing p.
func canvasToCell(vp canvas.Viewport, p canvas.Point) (col, row int) {
	return int(math.Floor((p.X - vp.X) / cellWidth)), int(math.Floor((p.Y - vp.Y) / cellHeight))
}

func (m *editorModel) View() string {
	v := m.s.View()
	var b strings.Builder
	b.WriteString(drawCanvas(v, m.width, m.canvasRows()))
	b.WriteString("\n")
	b.WriteString(stylePanel.Width(m.width).Render(m.panel(v)))
	return b.String()
}

func (m *editorModel) panel(v session.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n",
		StyleTitle.Render("linkboard"),
		StyleHighlight.Render("["+v.State.Tool.String()+"]"),
		StyleDim.Render(fmt.Sprintf("%d nodes  %d links  %d selected  %d pending",
			v.Graph.NodeCount(), v.Graph.LinkCount(), v.Selection.Len(), v.Pending)))
	if v.State.LinkSource != "" {
		b.WriteString(StyleWarning.Render("linking from "+v.State.LinkSource) + "\n")
	}
	if v.DrawerVisible {
		ref := v.Selection.Refs()[0]
		if _, val, err := m.s.Value(ref); err == nil {
			b.WriteString(StyleValue.Render(ref.String()) + "\n")
			b.WriteString(attributeTable(val))
			b.WriteString("\n")
		}
	}
	if m.status != "" {
		b.WriteString(StyleDim.Render(m.status) + "\n")
	}
	b.WriteString(StyleDim.Render("s select  n node  l link  del delete  esc cancel  w save  q quit"))
	return b.String()
}

// attributeTable lists the top-level attributes of v.
func attributeTable(v schema.Value) string {
	flat, _ := schema.Flatten(v).(map[string]any)
	if len(flat) == 0 {
		return StyleDim.Render("(no attributes)")
	}
	var rows [][]string
	for _, k := range slices.Sorted(maps.Keys(flat)) {
		rows = append(rows, []string{k, formatAttr(flat[k])})
	}
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}

func formatAttr(x any) string {
	switch x := x.(type) {
	case string:
		return x
	case []any, map[string]any:
		data, err := json.Marshal(x)
		if err != nil {
			return "?"
		}
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}

// =============================================================================
// Canvas Drawing
// =============================================================================

type cell struct {
	r     rune
	style *lipgloss.Style
}

type grid struct {
	w, h  int
	cells []cell
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([]cell, w*h)}
	for i := range g.cells {
		g.cells[i].r = ' '
	}
	return g
}

func (g *grid) set(col, row int, r rune, style *lipgloss.Style) {
	if col < 0 || row < 0 || col >= g.w || row >= g.h {
		return
	}
	g.cells[row*g.w+col] = cell{r: r, style: style}
}

func (g *grid) text(col, row int, s string, style *lipgloss.Style) {
	for i, r := range []rune(s) {
		g.set(col+i, row, r, style)
	}
}

// line draws a Bresenham line between two cells.
func (g *grid) line(c0, r0, c1, r1 int, ch rune, style *lipgloss.Style) {
	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		g.set(c0, r0, ch, style)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

func (g *grid) String() string {
	var b strings.Builder
	for row := 0; row < g.h; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		var cur *lipgloss.Style
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur != nil {
				b.WriteString(cur.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for col := 0; col < g.w; col++ {
			c := g.cells[row*g.w+col]
			if c.style != cur {
				flush()
				cur = c.style
			}
			run.WriteRune(c.r)
		}
		flush()
	}
	return b.String()
}

// drawCanvas renders the visible part of the diagram as text.
func drawCanvas(v session.View, width, height int) string {
	vp := v.State.Viewport
	g := newGrid(width, height)

	for _, seg := range v.Segments {
		c0, r0 := canvasToCell(vp, seg.From)
		c1, r1 := canvasToCell(vp, seg.To)
		style := &styleLink
		if v.Selection.Contains(selection.Link(seg.Link.SourceID, seg.Link.TargetID)) {
			style = &styleSelected
		}
		g.line(c0, r0, c1, r1, '·', style)
		g.set(c1, r1, arrowHead(seg), style)
	}

	if box := v.State.Box; box != nil {
		r := box.Rect()
		c0, r0 := canvasToCell(vp, canvas.Point{X: r.X, Y: r.Y})
		c1, r1 := canvasToCell(vp, canvas.Point{X: r.X + r.W, Y: r.Y + r.H})
		g.line(c0, r0, c1, r0, '─', &styleBox)
		g.line(c0, r1, c1, r1, '─', &styleBox)
		g.line(c0, r0, c0, r1, '│', &styleBox)
		g.line(c1, r0, c1, r1, '│', &styleBox)
	}

	for _, n := range v.Graph.Nodes() {
		col, row := canvasToCell(vp, canvas.Center(n))
		style, mark := &styleNode, 'o'
		switch {
		case n.ID == v.State.LinkSource:
			style, mark = &styleSource, '◎'
		case v.Selection.Contains(selection.Node(n.ID)):
			style, mark = &styleSelected, '●'
		}
		g.set(col, row, mark, style)
		g.text(col+2, row, nodeTitle(n), style)
	}
	return g.String()
}

func nodeTitle(n graph.Node) string {
	if v, ok := n.Value.Get("label"); ok {
		if s, ok := v.AsString(); ok && s != "" {
			return s
		}
	}
	return n.ID
}

func arrowHead(seg canvas.Segment) rune {
	d := seg.To.Sub(seg.From)
	if math.Abs(d.X) >= 2*math.Abs(d.Y) {
		if d.X >= 0 {
			return '>'
		}
		return '<'
	}
	if d.Y >= 0 {
		return 'v'
	}
	return '^'
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/sim"
	"github.com/flowviz/flowviz/pkg/topology"
)

// Playback speed bounds for the +/- keys.
const (
	minPlaySpeed = 0.125
	maxPlaySpeed = 64
)

// edgeSamples is how many points of each edge curve are plotted.
const edgeSamples = 24

// tickMsg advances the animation clock.
type tickMsg time.Time

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// playerModel is the bubbletea model behind the play command. It owns the
// scheduler and projects each frame onto a character grid.
type playerModel struct {
	name     string
	lay      *layout.Layout
	sched    *sim.Scheduler
	interval time.Duration

	last   time.Time
	frame  sim.Frame
	width  int
	height int
}

func newPlayerModel(name string, lay *layout.Layout, sched *sim.Scheduler, interval time.Duration) playerModel {
	return playerModel{
		name:     name,
		lay:      lay,
		sched:    sched,
		interval: interval,
	}
}

// Init schedules the first animation tick.
func (m playerModel) Init() tea.Cmd {
	return tickCmd(m.interval)
}

// Update handles key presses, terminal resizes, and animation ticks.
func (m playerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.sched.Paused() {
				m.sched.Resume()
			} else {
				m.sched.Pause()
			}
		case "+", "=":
			m.sched.SetSpeed(math.Min(m.sched.Speed()*2, maxPlaySpeed))
		case "-", "_":
			m.sched.SetSpeed(math.Max(m.sched.Speed()/2, minPlaySpeed))
		case "r":
			m.sched.Reset()
			m.frame = sim.Frame{}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		elapsed := m.interval.Seconds() * 1000
		if !m.last.IsZero() {
			elapsed = now.Sub(m.last).Seconds() * 1000
		}
		m.last = now
		m.frame = m.sched.Tick(elapsed)
		return m, tickCmd(m.interval)
	}

	return m, nil
}

// View renders the title bar, the flow canvas, and the status line.
func (m playerModel) View() string {
	if m.width < 24 || m.height < 8 {
		return "Terminal too small for the player."
	}

	cols, rows := m.width, m.height-3
	grid := newGrid(cols, rows)
	b := worldBounds(m.lay)

	for _, e := range m.lay.Edges {
		for i := 1; i < edgeSamples; i++ {
			pt := e.Path.At(float64(i) / edgeSamples)
			col, row := b.project(pt.X, pt.Y, cols, rows)
			grid.set(col, row, '·', StyleDim)
		}
	}

	for _, n := range m.lay.Nodes {
		col, row := b.project(n.X, n.Y, cols, rows)
		grid.label(col, row, "["+n.ID+"]", nodeStyle(n.Type))
	}

	for i := range m.frame.Parked {
		p := &m.frame.Parked[i]
		col, row := b.project(p.X, p.Y, cols, rows)
		grid.set(col, row, particleRune(p.Shape), lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Faint(true))
	}

	for i := range m.frame.Particles {
		p := &m.frame.Particles[i]
		col, row := b.project(p.X, p.Y, cols, rows)
		grid.set(col, row, particleRune(p.Shape), lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)))
	}

	var sb strings.Builder
	sb.WriteString(" ")
	sb.WriteString(StyleTitle.Render(m.name))
	sb.WriteString(StyleDim.Render(fmt.Sprintf("  %d nodes · %d edges", len(m.lay.Nodes), len(m.lay.Edges))))
	sb.WriteByte('\n')
	grid.render(&sb)
	sb.WriteString(m.statusLine())
	sb.WriteByte('\n')
	sb.WriteString(" ")
	sb.WriteString(StyleDim.Render("space pause · +/- speed · r restart · q quit"))
	return sb.String()
}

func (m playerModel) statusLine() string {
	seg := func(label, value string, style lipgloss.Style) string {
		return StyleDim.Render(label+" ") + style.Render(value)
	}
	parts := []string{
		seg("tick", strconv.Itoa(m.frame.Tick), StyleNumber),
		seg("speed", fmt.Sprintf("×%g", m.sched.Speed()), StyleNumber),
		seg("live", strconv.Itoa(len(m.frame.Particles)), StyleNumber),
		seg("parked", strconv.Itoa(len(m.frame.Parked)), StyleNumber),
		seg("delivered", strconv.Itoa(m.frame.Completed), StyleSuccess),
	}
	line := " " + strings.Join(parts, "   ")
	if m.sched.Paused() {
		line += "   " + StyleHighlight.Render("paused")
	}
	return line
}

// nodeStyle maps a node type to its display color.
func nodeStyle(t topology.NodeType) lipgloss.Style {
	switch t {
	case topology.NodeTopic:
		return StyleWarning
	case topology.NodeDB:
		return StyleSuccess
	case topology.NodeProcessor:
		return StyleLink
	case topology.NodeExternal:
		return StyleDim
	default:
		return StyleHighlight
	}
}

// particleRune maps an event shape to its canvas glyph. Icon shapes and
// anything unrecognized fall back to the circle.
func particleRune(shape string) rune {
	switch shape {
	case topology.ShapeSquare:
		return '■'
	case topology.ShapeTriangle:
		return '▲'
	case topology.ShapeDiamond:
		return '◆'
	default:
		return '●'
	}
}

// =============================================================================
// Canvas Grid
// =============================================================================

// cell is one character of the canvas.
type cell struct {
	r      rune
	style  lipgloss.Style
	styled bool
}

// grid is a fixed-size character canvas with out-of-range writes dropped.
type grid struct {
	cells [][]cell
}

func newGrid(cols, rows int) *grid {
	cells := make([][]cell, rows)
	for i := range cells {
		cells[i] = make([]cell, cols)
		for j := range cells[i] {
			cells[i][j] = cell{r: ' '}
		}
	}
	return &grid{cells: cells}
}

func (g *grid) set(col, row int, r rune, style lipgloss.Style) {
	if row < 0 || row >= len(g.cells) || col < 0 || col >= len(g.cells[row]) {
		return
	}
	g.cells[row][col] = cell{r: r, style: style, styled: true}
}

// label paints a string centered on col.
func (g *grid) label(col, row int, text string, style lipgloss.Style) {
	runes := []rune(text)
	start := col - len(runes)/2
	for i, r := range runes {
		g.set(start+i, row, r, style)
	}
}

func (g *grid) render(sb *strings.Builder) {
	for _, line := range g.cells {
		for _, c := range line {
			if c.styled {
				sb.WriteString(c.style.Render(string(c.r)))
			} else {
				sb.WriteRune(c.r)
			}
		}
		sb.WriteByte('\n')
	}
}

// =============================================================================
// World Projection
// =============================================================================

// bounds is the world-space bounding box of a layout.
type bounds struct {
	minX, minY float64
	maxX, maxY float64
}

// worldBounds computes the box enclosing every node and every edge curve
// control point, so traveling particles never leave the canvas.
func worldBounds(lay *layout.Layout) bounds {
	b := bounds{
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
	}
	grow := func(x, y float64) {
		b.minX = math.Min(b.minX, x)
		b.minY = math.Min(b.minY, y)
		b.maxX = math.Max(b.maxX, x)
		b.maxY = math.Max(b.maxY, y)
	}
	for _, n := range lay.Nodes {
		grow(n.X-n.Width/2, n.Y-n.Height/2)
		grow(n.X+n.Width/2, n.Y+n.Height/2)
	}
	for _, e := range lay.Edges {
		for _, pt := range []layout.Point{e.Path.Start, e.Path.C1, e.Path.C2, e.Path.End} {
			grow(pt.X, pt.Y)
		}
	}
	return b
}

// project maps a world coordinate onto the character grid. A degenerate
// axis (all points identical) maps to the center.
func (b bounds) project(x, y float64, cols, rows int) (col, row int) {
	col, row = cols/2, rows/2
	if span := b.maxX - b.minX; span > 0 {
		col = int(math.Round((x - b.minX) / span * float64(cols-1)))
	}
	if span := b.maxY - b.minY; span > 0 {
		row = int(math.Round((y - b.minY) / span * float64(rows-1)))
	}
	return col, row
}

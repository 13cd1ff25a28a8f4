package tui

import (
	"context"
	"fmt"
	"time"

	"grinkit/internal/engine"
	"grinkit/internal/grin"
	"grinkit/internal/output"
	"grinkit/ui/tui/components"
	"grinkit/ui/tui/state"
	"grinkit/ui/tui/views"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

const (
	pageSize     = 15
	maxLogLines  = 100
	neighborsCap = 50
)

// MainModel is the Bubble Tea Model acting as the Controller
type MainModel struct {
	graph          grin.Graph
	state          state.AppState
	spinner        spinner.Model
	degrees        *components.DegreeWidget
	menuCursor     int
	rowCursor      int
	animCursor     float64
	velocity       float64 // Physics velocity
	spring         harmonica.Spring
	consoleScrollY int
	mouseX         int
	mouseY         int
	quitting       bool
	width          int
	height         int
}

// Messages
type AnimateMsg time.Time

type VerticesLoadedMsg struct {
	Offset   int
	Total    int
	Vertices []output.VertexView
	Err      error
}

type VertexLoadedMsg struct {
	Vertex    output.VertexView
	Neighbors []output.NeighborView
	Total     int
	Err       error
}

type ChecksDoneMsg struct {
	Results []engine.CheckResult
	Err     error
}

type DegreesLoadedMsg struct {
	Counts []int
	Err    error
}

func InitialModel(g grin.Graph, title string) MainModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	// Initialize physics spring for smooth cursor animation
	// Increased frequency (12.0) for faster response and damping (0.9) to prevent overshoot
	spring := harmonica.NewSpring(harmonica.FPS(60), 12.0, 0.9)

	m := MainModel{
		graph:   g,
		spinner: s,
		degrees: components.NewDegreeWidget(40, 12),
		spring:  spring,
		state: state.AppState{
			Title:       title,
			Report:      output.BuildReport(title, g, nil),
			CurrentPage: state.PageMenu,
		},
	}
	m.logf("opened %s: %d vertices, %d edges", title, g.VertexNum(), g.EdgeNum())
	return m
}

func (m *MainModel) Init() tea.Cmd {
	zone.NewGlobal()
	return tea.Batch(
		m.spinner.Tick,
		animateCmd(),
	)
}

func (m *MainModel) logf(format string, args ...any) {
	line := fmt.Sprintf("[%s] ", time.Now().Format("15:04:05")) + fmt.Sprintf(format, args...)
	m.state.ConsoleLogs = append(m.state.ConsoleLogs, line)
	if len(m.state.ConsoleLogs) > maxLogLines {
		m.state.ConsoleLogs = m.state.ConsoleLogs[1:]
	}
}

// Commands
func animateCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*16, func(t time.Time) tea.Msg {
		return AnimateMsg(t)
	})
}

func loadVerticesCmd(g grin.Graph, offset int) tea.Cmd {
	return func() tea.Msg {
		l, err := g.Vertices(grin.VertexQuery{Type: grin.NullVertexType, Scope: grin.ScopeAll})
		if err != nil {
			return VerticesLoadedMsg{Err: err}
		}
		msg := VerticesLoadedMsg{Offset: offset, Total: l.Len()}
		for i := offset; i < min(offset+pageSize, l.Len()); i++ {
			v, err := output.DescribeVertex(g, l.At(i))
			if err != nil {
				return VerticesLoadedMsg{Err: err}
			}
			msg.Vertices = append(msg.Vertices, v)
		}
		return msg
	}
}

func loadVertexCmd(g grin.Graph, v grin.Vertex) tea.Cmd {
	return func() tea.Msg {
		view, err := output.DescribeVertex(g, v)
		if err != nil {
			return VertexLoadedMsg{Err: err}
		}
		total, nbrs, err := output.DescribeNeighbors(g, grin.AdjacentQuery{Vertex: v, Dir: grin.Both, EdgeType: grin.NullEdgeType}, neighborsCap)
		if err != nil {
			return VertexLoadedMsg{Err: err}
		}
		return VertexLoadedMsg{Vertex: view, Neighbors: nbrs, Total: total}
	}
}

func runChecksCmd(g grin.Graph) tea.Cmd {
	return func() tea.Msg {
		results, err := engine.Evaluate(context.Background(), g)
		return ChecksDoneMsg{Results: results, Err: err}
	}
}

func loadDegreesCmd(g grin.Graph) tea.Cmd {
	return func() tea.Msg {
		counts, err := engine.DegreeHistogram(context.Background(), g, grin.Both)
		return DegreesLoadedMsg{Counts: counts, Err: err}
	}
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case AnimateMsg:
		return m.handleAnimateMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)

	case VerticesLoadedMsg:
		return m.handleVerticesLoadedMsg(msg)

	case VertexLoadedMsg:
		return m.handleVertexLoadedMsg(msg)

	case ChecksDoneMsg:
		return m.handleChecksDoneMsg(msg)

	case DegreesLoadedMsg:
		return m.handleDegreesLoadedMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	}

	return m, nil
}

func (m *MainModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state.CurrentPage {
	case state.PageMenu:
		switch key {
		case "up", "k":
			if m.menuCursor > 0 {
				m.menuCursor--
			}
		case "down", "j":
			if m.menuCursor < len(views.MenuOptions)-1 {
				m.menuCursor++
			}
		case "enter":
			return m, m.navigateTo(m.menuCursor)
		}
		return m, nil

	case state.PageVertices:
		switch key {
		case "up", "k":
			m.moveRow(-1, len(m.state.Vertices))
		case "down", "j":
			m.moveRow(1, len(m.state.Vertices))
		case "right", "l":
			if next := m.state.Offset + pageSize; next < m.state.VertexTotal {
				return m, loadVerticesCmd(m.graph, next)
			}
		case "left", "h":
			if m.state.Offset > 0 {
				return m, loadVerticesCmd(m.graph, max(m.state.Offset-pageSize, 0))
			}
		case "enter":
			return m, m.openRow()
		}

	case state.PageVertex:
		switch key {
		case "up", "k":
			m.moveRow(-1, len(m.state.Neighbors))
			return m, nil
		case "down", "j":
			m.moveRow(1, len(m.state.Neighbors))
			return m, nil
		case "enter":
			return m, m.openRow()
		case "b", "esc", "backspace":
			return m, m.back()
		}

	case state.PageChecks:
		if key == "r" && !m.state.Checking {
			return m, m.startChecks()
		}

	case state.PageConsole:
		switch key {
		case "up", "k":
			if m.consoleScrollY > 0 {
				m.consoleScrollY--
			}
		case "down", "j":
			m.consoleScrollY++
		}
	}

	if key == "b" || key == "esc" || key == "backspace" {
		m.state.CurrentPage = state.PageMenu
		m.consoleScrollY = 0
		m.state.Err = nil
		return m, nil
	}

	return m, nil
}

func (m *MainModel) moveRow(delta, n int) {
	m.rowCursor = max(0, min(m.rowCursor+delta, n-1))
}

// openRow opens the vertex under the row cursor: a listed vertex on the
// explorer page or a neighbor on the vertex page.
func (m *MainModel) openRow() tea.Cmd {
	switch m.state.CurrentPage {
	case state.PageVertices:
		if m.rowCursor >= len(m.state.Vertices) {
			return nil
		}
		m.state.History = nil
		return loadVertexCmd(m.graph, grin.Vertex(m.state.Vertices[m.rowCursor].Vertex))
	case state.PageVertex:
		if m.rowCursor >= len(m.state.Neighbors) || m.state.Selected == nil {
			return nil
		}
		m.state.History = append(m.state.History, m.state.Selected.Vertex)
		return loadVertexCmd(m.graph, grin.Vertex(m.state.Neighbors[m.rowCursor].Neighbor))
	}
	return nil
}

// back walks to the previously visited vertex, or to the explorer when
// the path is empty.
func (m *MainModel) back() tea.Cmd {
	h := m.state.History
	if len(h) == 0 {
		m.state.CurrentPage = state.PageVertices
		m.state.Selected = nil
		m.rowCursor = 0
		return nil
	}
	prev := h[len(h)-1]
	m.state.History = h[:len(h)-1]
	return loadVertexCmd(m.graph, grin.Vertex(prev))
}

func (m *MainModel) startChecks() tea.Cmd {
	m.state.Checking = true
	m.logf("running checks")
	return runChecksCmd(m.graph)
}

func (m *MainModel) navigateTo(cursor int) tea.Cmd {
	m.rowCursor = 0
	switch cursor {
	case 0:
		m.state.CurrentPage = state.PageSchema
	case 1:
		m.state.CurrentPage = state.PageVertices
		return loadVerticesCmd(m.graph, m.state.Offset)
	case 2:
		m.state.CurrentPage = state.PageChecks
		if m.state.Results == nil && !m.state.Checking {
			return m.startChecks()
		}
	case 3:
		m.state.CurrentPage = state.PageDegrees
		if m.state.Degrees == nil {
			return loadDegreesCmd(m.graph)
		}
	case 4:
		m.state.CurrentPage = state.PageConsole
	}
	return nil
}

func (m *MainModel) handleAnimateMsg(msg AnimateMsg) (tea.Model, tea.Cmd) {
	var v float64 = m.velocity
	m.animCursor, v = m.spring.Update(m.animCursor, float64(m.menuCursor), v)
	m.velocity = v
	return m, animateCmd()
}

func (m *MainModel) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	newW := msg.Width - 12
	if newW > 10 {
		m.degrees.Resize(newW, max(msg.Height/2, 8))
	}
	return m, nil
}

func (m *MainModel) handleVerticesLoadedMsg(msg VerticesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.state.Err = msg.Err
		m.logf("list vertices: %v", msg.Err)
		return m, nil
	}
	m.state.Err = nil
	m.state.Offset = msg.Offset
	m.state.VertexTotal = msg.Total
	m.state.Vertices = msg.Vertices
	m.rowCursor = 0
	return m, nil
}

func (m *MainModel) handleVertexLoadedMsg(msg VertexLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.state.Err = msg.Err
		m.logf("read vertex: %v", msg.Err)
		return m, nil
	}
	m.state.Err = nil
	v := msg.Vertex
	m.state.Selected = &v
	m.state.Neighbors = msg.Neighbors
	m.state.NeighborTotal = msg.Total
	m.state.CurrentPage = state.PageVertex
	m.rowCursor = 0
	m.logf("vertex %d (%s): %d neighbors", v.Vertex, v.Type, msg.Total)
	return m, nil
}

func (m *MainModel) handleChecksDoneMsg(msg ChecksDoneMsg) (tea.Model, tea.Cmd) {
	m.state.Checking = false
	m.state.LastCheck = time.Now()
	if msg.Err != nil {
		m.state.Err = msg.Err
		m.logf("checks failed: %v", msg.Err)
		return m, nil
	}
	m.state.Results = msg.Results
	m.logf("checks finished: %s", engine.Worst(msg.Results))
	return m, nil
}

func (m *MainModel) handleDegreesLoadedMsg(msg DegreesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.state.Err = msg.Err
		m.logf("degree distribution: %v", msg.Err)
		return m, nil
	}
	counts := make([]float64, len(msg.Counts))
	for i, c := range msg.Counts {
		counts[i] = float64(c)
	}
	m.state.Degrees = counts
	m.degrees.SetCounts(counts)
	return m, nil
}

func (m *MainModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.mouseX = msg.X
	m.mouseY = msg.Y

	if msg.Action != tea.MouseActionRelease {
		return m, nil
	}
	switch m.state.CurrentPage {
	case state.PageMenu:
		for i := range views.MenuOptions {
			if zone.Get(fmt.Sprintf("menu_%d", i)).InBounds(msg) {
				m.menuCursor = i
				return m, m.navigateTo(i)
			}
		}
	case state.PageVertices, state.PageVertex:
		n := len(m.state.Vertices)
		if m.state.CurrentPage == state.PageVertex {
			n = len(m.state.Neighbors)
		}
		for i := 0; i < n; i++ {
			if zone.Get(fmt.Sprintf("row_%d", i)).InBounds(msg) {
				m.rowCursor = i
				return m, m.openRow()
			}
		}
	}
	return m, nil
}

func (m *MainModel) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	switch m.state.CurrentPage {
	case state.PageMenu:
		return views.RenderMenu(m.state, m.width, m.height, m.menuCursor, m.animCursor, m.mouseX, m.mouseY)
	case state.PageSchema:
		return views.RenderSchema(m.state, m.spinner.View())
	case state.PageVertices:
		return views.RenderVertices(m.state, m.width, m.rowCursor)
	case state.PageVertex:
		return views.RenderVertex(m.state, m.width, m.rowCursor)
	case state.PageChecks:
		return views.RenderChecks(m.state, m.spinner.View(), m.width)
	case state.PageDegrees:
		return views.RenderDegrees(m.state, m.degrees.View(), m.width)
	case state.PageConsole:
		return views.RenderRawConsole(m.state, m.width, m.height, m.consoleScrollY)
	default:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Bold(true).Render("Unknown page\n\nPress 'b' to go back"),
		)
	}
}

// Start runs the browser over g until the user quits.
func Start(g grin.Graph, title string) error {
	m := InitialModel(g, title)
	p := tea.NewProgram(
		&m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}

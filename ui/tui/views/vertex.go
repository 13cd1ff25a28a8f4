package views

import (
	"fmt"
	"strings"

	"grinkit/ui/tui/state"
	"grinkit/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// VertexView shows one vertex and its adjacency. Selecting a neighbor
// walks to it.
type VertexView struct{}

func (v VertexView) Render(s state.AppState, props ViewProps) string {
	if s.Selected == nil {
		return MenuHeaderStyle.Width(props.Width).Render("Vertex")
	}
	sel := s.Selected
	header := MenuHeaderStyle.Width(props.Width).Render(fmt.Sprintf("Vertex %d (%s)", sel.Vertex, sel.Type))
	if s.Err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, header, fmt.Sprintf("Error: %v", s.Err))
	}

	var info []string
	if sel.OriginalID != nil {
		info = append(info, fmt.Sprintf("original id : %v", sel.OriginalID))
	}
	if sel.Ref != "" {
		kind := "master"
		if sel.Mirror {
			kind = "mirror"
		}
		info = append(info, fmt.Sprintf("ref         : %s (%s)", sel.Ref, kind))
	}
	for _, k := range sortedKeys(sel.Properties) {
		info = append(info, fmt.Sprintf("%-12s: %v", k, sel.Properties[k]))
	}
	detail := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Properties"),
		strings.Join(info, "\n"),
	))

	lines := make([]string, 0, len(s.Neighbors))
	for i, n := range s.Neighbors {
		arrow := "->"
		if n.Direction == "in" {
			arrow = "<-"
		}
		text := fmt.Sprintf("%s %-8s %6d (%s) %s", arrow, n.EdgeType, n.Neighbor, n.NeighborType, formatProps(n.EdgeProperties))
		lines = append(lines, zone.Mark(fmt.Sprintf("row_%d", i), row(i, props.RowCursor, text)))
	}
	if len(lines) == 0 {
		lines = append(lines, "  (no neighbors)")
	}
	adjacency := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Neighbors (%d of %d)", len(s.Neighbors), s.NeighborTotal)),
		strings.Join(lines, "\n"),
	))

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, detail, adjacency),
		styles.HintStyle.Render(fmt.Sprintf("[↑/↓] Select • [Enter] Follow • Path depth %d • Press 'b' to go back", len(s.History))),
	))
}

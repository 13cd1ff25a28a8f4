package views

import (
	"fmt"
	"sort"
	"strings"

	"grinkit/ui/tui/state"
	"grinkit/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// VerticesView pages through every vertex of the graph.
type VerticesView struct{}

func sortedKeys(props map[string]any) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatProps(props map[string]any) string {
	keys := sortedKeys(props)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, props[k])
	}
	return strings.Join(parts, " ")
}

func row(i, cursor int, text string) string {
	if i == cursor {
		return styles.SelectedStyle.Render("▸ " + text)
	}
	return "  " + text
}

func (v VerticesView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("Vertex Explorer")
	if s.Err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, header, fmt.Sprintf("Error: %v", s.Err))
	}

	lines := make([]string, 0, len(s.Vertices))
	for i, vv := range s.Vertices {
		text := fmt.Sprintf("%6d  %-10s %-6v %s", vv.Vertex, vv.Type, vv.OriginalID, formatProps(vv.Properties))
		lines = append(lines, zone.Mark(fmt.Sprintf("row_%d", i), row(i, props.RowCursor, text)))
	}
	if len(lines) == 0 {
		lines = append(lines, "  (no vertices)")
	}

	pos := fmt.Sprintf("Vertices %d-%d of %d", s.Offset+min(1, len(s.Vertices)), s.Offset+len(s.Vertices), s.VertexTotal)
	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		header,
		styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render(pos),
			strings.Join(lines, "\n"),
		)),
		styles.HintStyle.Render("[↑/↓] Select • [←/→] Page • [Enter] Open • Press 'b' to go back"),
	))
}

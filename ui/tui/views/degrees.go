package views

import (
	"fmt"

	"grinkit/ui/tui/state"
	"grinkit/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// DegreesView shows the degree distribution chart.
type DegreesView struct{}

func (v DegreesView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("Degree Distribution")

	total := 0.0
	for _, c := range s.Degrees {
		total += c
	}
	info := lipgloss.NewStyle().Padding(1, 2).Render(fmt.Sprintf(
		"Vertices: %.0f\nEdges: %d\nDistinct degrees: %d",
		total, s.Report.EdgeNum, len(s.Degrees)))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		info,
		props.ChartView,
		styles.HintStyle.Render("Press 'b' to go back"),
	)
}

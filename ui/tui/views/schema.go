package views

import (
	"fmt"
	"strings"

	"grinkit/internal/output"
	"grinkit/ui/tui/state"
	"grinkit/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// SchemaView shows the summary, vertex type and edge type cards.
type SchemaView struct{}

func renderSection(sec *output.Section) string {
	var b strings.Builder
	for _, item := range sec.Items {
		val := fmt.Sprintf("%g%s", item.Value, item.Unit)
		if item.Unit == "%" {
			val = fmt.Sprintf("%.1f%%", item.Value)
		}
		if item.Status != "" {
			val = styles.ColorForStatus(item.Status).Render(fmt.Sprintf("%s [%s]", val, item.Status))
		}
		line := fmt.Sprintf("%-18s : %s", item.Label, val)
		if item.Note != "" {
			line += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("#888")).Render(item.Note)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func card(title string, sec *output.Section) string {
	if sec == nil {
		return ""
	}
	return styles.CardStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render(title),
			renderSection(sec),
		),
	)
}

func (v SchemaView) Render(s state.AppState, props ViewProps) string {
	if s.Err != nil {
		return fmt.Sprintf("Error: %v", s.Err)
	}

	header := lipgloss.JoinHorizontal(lipgloss.Left,
		props.SpinnerView,
		styles.TitleStyle.Render("grinkit // "+s.Title),
	)

	r := s.Report
	summary := zone.Mark("summary_box", card("Summary", r.SectionByID(output.SectionSummary)))
	vertices := card("Vertex Types", r.SectionByID(output.SectionVertices))
	edges := card("Edge Types", r.SectionByID(output.SectionEdges))
	parts := card("Partitions", r.SectionByID(output.SectionPartitions))

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		header,
		summary,
		lipgloss.JoinHorizontal(lipgloss.Top, vertices, edges),
		parts,
		styles.HintStyle.Render("Press 'b' to go back • 'q' to quit"),
	))
}
